package bridge

// OperationDescriptor is the static record describing how to call one backend
// action. Descriptors are shared between goroutines and must not be modified
// after registration.
type OperationDescriptor struct {
	ID          string // e.g. "billing.invoice.generate"
	Family      string // backend family that owns the codec
	Description string

	// Address is the full backend endpoint URL.
	Address string

	// Action is the transport header naming the wire operation.
	Action Action

	Template Template
	Params   []Param
	Extract  Extractor

	// Idempotent marks operations that are safe to repeat. The bridge never
	// retries; callers that own a retry policy consult this flag.
	Idempotent bool
}

// Action is the header carrying the wire action. Backends disagree on both
// name and value format, so neither is derived.
type Action struct {
	Header string // e.g. "SOAPAction"
	Value  string // bare name or fully-qualified (possibly quoted) URI
}

// Template describes the namespace-qualified operation element of the body.
type Template struct {
	Namespace string // operation namespace URI
	Prefix    string // prefix bound to Namespace in the envelope
	Operation string // local name of the operation element

	// QualifiedParams puts parameter elements in Namespace (document/literal
	// style). When false, parameters are unqualified (RPC/wrapped style).
	QualifiedParams bool
}

// ParamType is the wire type of a parameter slot.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInt     ParamType = "int"
	TypeDecimal ParamType = "decimal"
)

// Param is one ordered parameter slot of an operation.
type Param struct {
	Name        string // caller-facing name
	Element     string // wire element local name
	Type        ParamType
	NonNegative bool
	Positive    bool // int slots only; implies NonNegative

	// SingleLine rejects text containing CR or LF.
	SingleLine bool
}

// Extractor recovers the domain value from a response body. Extractors are
// pure: the same bytes always yield the same value or error.
type Extractor func(body []byte) (any, error)

// ParamNames returns slot names in descriptor order.
func (d *OperationDescriptor) ParamNames() []string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}
