package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/agriservices/farmbridge/internal/bridge"
)

const (
	// EnvelopeNamespace is the SOAP 1.1 envelope namespace.
	EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	// Envelope12Namespace is the SOAP 1.2 envelope namespace (faults only).
	Envelope12Namespace = "http://www.w3.org/2003/05/soap-envelope"

	envelopePrefix = "soapenv"
)

// ContentType is the request content type for SOAP 1.1.
const ContentType = "text/xml; charset=utf-8"

// BuildEnvelope renders a complete SOAP 1.1 request:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<soapenv:Envelope xmlns:soapenv="..." xmlns:p="ns">
//	  <soapenv:Header></soapenv:Header>
//	  <soapenv:Body><p:op>...params in slot order...</p:op></soapenv:Body>
//	</soapenv:Envelope>
//
// Parameter values are written as character data through encoding/xml, so
// markup in caller input can never alter the document structure.
func BuildEnvelope(tmpl bridge.Template, slots []bridge.Param, values []string) (bridge.Envelope, error) {
	if tmpl.Operation == "" {
		return nil, fmt.Errorf("%w: template has no operation element", bridge.ErrInvalidParameter)
	}
	if len(slots) != len(values) {
		return nil, fmt.Errorf("%w: %d slots, %d values", bridge.ErrInvalidParameter, len(slots), len(values))
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	tokens := []xml.Token{
		xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)},
		start(envelopePrefix+":Envelope", envelopeAttrs(tmpl)...),
		start(envelopePrefix + ":Header"),
		end(envelopePrefix + ":Header"),
		start(envelopePrefix + ":Body"),
		start(qualify(tmpl.Prefix, tmpl.Operation), operationAttrs(tmpl)...),
	}
	for i, slot := range slots {
		name := slot.Element
		if name == "" {
			name = slot.Name
		}
		if tmpl.QualifiedParams {
			name = qualify(tmpl.Prefix, name)
		}
		if err := bridge.CheckText(slot, values[i]); err != nil {
			return nil, err
		}
		tokens = append(tokens, start(name), xml.CharData(values[i]), end(name))
	}
	tokens = append(tokens,
		end(qualify(tmpl.Prefix, tmpl.Operation)),
		end(envelopePrefix+":Body"),
		end(envelopePrefix+":Envelope"),
	)

	for _, tok := range tokens {
		if err := enc.EncodeToken(tok); err != nil {
			return nil, fmt.Errorf("%w: encode envelope: %v", bridge.ErrInvalidParameter, err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("%w: flush envelope: %v", bridge.ErrInvalidParameter, err)
	}
	return bridge.Envelope(buf.Bytes()), nil
}

func envelopeAttrs(tmpl bridge.Template) []xml.Attr {
	attrs := []xml.Attr{{Name: xml.Name{Local: "xmlns:" + envelopePrefix}, Value: EnvelopeNamespace}}
	if tmpl.Namespace == "" || tmpl.Prefix == "" {
		return attrs
	}
	return append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + tmpl.Prefix}, Value: tmpl.Namespace})
}

// Unprefixed templates bind the namespace as the default on the operation element.
func operationAttrs(tmpl bridge.Template) []xml.Attr {
	if tmpl.Namespace == "" || tmpl.Prefix != "" {
		return nil
	}
	return []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: tmpl.Namespace}}
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// Element names are emitted verbatim (prefix included) so the envelope keeps
// the exact prefixes the backends were tested against.
func start(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

func end(name string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: name}}
}
