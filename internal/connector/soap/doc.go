// Package soap provides the SOAP 1.1 building blocks shared by the legacy
// backend connectors (crop, billing).
//
// Structure:
//
//	envelope.go  - envelope construction from bridge.Template (structural escaping)
//	document.go  - namespace-aware response tree and field lookup
//	fault.go     - SOAP 1.1 / 1.2 fault detection
//	codec.go     - bridge.Codec implementation (fault/status/extract policy)
//	client.go    - rate-limited HTTP transport (bridge.Sender)
//	auth.go      - credential forwarding strategies
package soap
