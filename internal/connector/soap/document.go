package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agriservices/farmbridge/internal/bridge"
)

// XSINamespace is the XML Schema instance namespace (xsi:nil).
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// Node is one element of a parsed response. Names carry resolved namespace
// URIs, so lookups do not depend on the prefixes a backend chose.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string // character data directly inside this element
}

// ParseDocument parses body into an element tree. Bodies that are not
// well-formed XML yield ErrMalformedResponse.
func ParseDocument(body []byte) (*Node, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", bridge.ErrMalformedResponse)
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.CharsetReader = passthroughCharset

	var root *Node
	var stack []*Node
	var text []*strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", bridge.ErrMalformedResponse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attr: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", bridge.ErrMalformedResponse)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.CharData:
			if len(stack) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.Text = text[len(text)-1].String()
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", bridge.ErrMalformedResponse)
	}
	return root, nil
}

// Body returns the SOAP Body element, or nil when root is not an envelope.
func (n *Node) Body() *Node {
	if n == nil || n.Name.Local != "Envelope" {
		return nil
	}
	return n.Child("Body")
}

// Find returns the first descendant (depth-first, self included) whose local
// name matches.
func (n *Node) Find(local string) *Node {
	if n == nil {
		return nil
	}
	if n.Name.Local == local {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(local); found != nil {
			return found
		}
	}
	return nil
}

// Child returns the first direct child with the given local name.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// Field returns the trimmed text of a direct child. Absent and xsi:nil
// children report ok=false.
func (n *Node) Field(local string) (string, bool) {
	c := n.Child(local)
	if c == nil || c.IsNil() {
		return "", false
	}
	return strings.TrimSpace(c.Text), true
}

// IsNil reports whether the element is marked xsi:nil="true".
func (n *Node) IsNil() bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Name.Local == "nil" && (a.Name.Space == XSINamespace || a.Name.Space == "i" || a.Name.Space == "xsi") {
			return strings.EqualFold(strings.TrimSpace(a.Value), "true")
		}
	}
	return false
}

// ResponseElement locates the body element wrapping an operation's answer.
// Missing envelope or wrapper is reported as ErrMalformedResponse: the body
// is not an answer to the operation at all.
func ResponseElement(root *Node, local string) (*Node, error) {
	body := root.Body()
	if body == nil {
		return nil, fmt.Errorf("%w: not a SOAP envelope (root %q)", bridge.ErrMalformedResponse, root.Name.Local)
	}
	resp := body.Child(local)
	if resp == nil {
		return nil, fmt.Errorf("%w: body has no %s element", bridge.ErrMalformedResponse, local)
	}
	return resp, nil
}

// Extract adapts a tree-level extraction function into a bridge.Extractor.
func Extract(fn func(root *Node) (any, error)) bridge.Extractor {
	return func(body []byte) (any, error) {
		root, err := ParseDocument(body)
		if err != nil {
			return nil, err
		}
		return fn(root)
	}
}

// Backends declare utf-8 or iso-8859-1; both decode the bytes as-is, and the
// latter only ever carries ASCII in practice.
func passthroughCharset(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii", "iso-8859-1", "latin1":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
