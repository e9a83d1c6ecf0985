package gateway

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// =============================================================================
// ERROR MAPPING
// =============================================================================

// callerKinds are failures caused by the request itself; their detail is safe
// to return. Backend-side failures get a generic message.
var callerKinds = map[bridge.Kind]bool{
	bridge.KindUnknownOperation: true,
	bridge.KindMissingParameter: true,
	bridge.KindInvalidParameter: true,
}

var genericMessages = map[bridge.Kind]string{
	bridge.KindTimeout:           "backend service did not answer in time",
	bridge.KindTransportFailure:  "backend service unavailable",
	bridge.KindMalformedResponse: "backend service returned an unreadable response",
	bridge.KindBackendFault:      "backend service reported an error",
}

// classify returns the kind of err and the message shown to callers.
func classify(err error) (bridge.Kind, string) {
	kind := bridge.KindOf(err, "")
	if callerKinds[kind] {
		return kind, err.Error()
	}
	if msg, ok := genericMessages[kind]; ok {
		return kind, msg
	}
	return kind, "internal error"
}

func grpcCode(kind bridge.Kind) codes.Code {
	switch kind {
	case bridge.KindUnknownOperation:
		return codes.NotFound
	case bridge.KindMissingParameter, bridge.KindInvalidParameter:
		return codes.InvalidArgument
	case bridge.KindTimeout:
		return codes.DeadlineExceeded
	case bridge.KindTransportFailure:
		return codes.Unavailable
	case bridge.KindBackendFault:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func httpStatus(kind bridge.Kind) int {
	switch kind {
	case bridge.KindUnknownOperation:
		return http.StatusNotFound
	case bridge.KindMissingParameter, bridge.KindInvalidParameter:
		return http.StatusBadRequest
	case bridge.KindTimeout:
		return http.StatusGatewayTimeout
	case bridge.KindTransportFailure, bridge.KindMalformedResponse, bridge.KindBackendFault:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// bearerToken extracts the credential of an Authorization header value.
func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
