package soap

import (
	"fmt"
	"strings"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// =============================================================================
// FAULTS
// =============================================================================

// Fault is a SOAP fault reported by a backend. SOAP 1.1 (faultcode /
// faultstring) and SOAP 1.2 (Code/Value, Reason/Text) are both recognized.
type Fault struct {
	Code   string
	Reason string
	Detail string
}

func (f *Fault) Error() string {
	switch {
	case f.Code != "" && f.Reason != "":
		return fmt.Sprintf("soap fault %s: %s", f.Code, f.Reason)
	case f.Reason != "":
		return "soap fault: " + f.Reason
	case f.Code != "":
		return "soap fault " + f.Code
	default:
		return "soap fault"
	}
}

// Unwrap lets errors.Is(fault, bridge.ErrBackendFault) hold.
func (f *Fault) Unwrap() error { return bridge.ErrBackendFault }

// FindFault returns the fault carried by a parsed response, if any. A Fault
// element anywhere in the document counts.
func FindFault(root *Node) (*Fault, bool) {
	n := root.Find("Fault")
	if n == nil {
		return nil, false
	}

	f := &Fault{}
	if code, ok := n.Field("faultcode"); ok {
		f.Code = code
	} else if c := n.Child("Code"); c != nil {
		f.Code, _ = c.Field("Value")
	}

	if reason, ok := n.Field("faultstring"); ok {
		f.Reason = reason
	} else if r := n.Child("Reason"); r != nil {
		f.Reason, _ = r.Field("Text")
	}

	detail := n.Child("detail")
	if detail == nil {
		detail = n.Child("Detail")
	}
	if detail != nil {
		f.Detail = collectText(detail)
	}
	return f, true
}

func collectText(n *Node) string {
	var parts []string
	var walk func(*Node)
	walk = func(n *Node) {
		if t := strings.TrimSpace(n.Text); t != "" {
			parts = append(parts, t)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
