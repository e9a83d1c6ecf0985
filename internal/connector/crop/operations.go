package crop

import (
	"strings"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// Family is the backend family identifier of the crop service.
const Family = "soap.jaxws.crop"

const (
	// Namespace is the target namespace of the crop service.
	Namespace = "http://crop.agriservices.com/"
	// Path is where the service is published on its host.
	Path = "/crop"

	prefix = "crop"
)

// Operation identifiers.
const (
	OpHello  = "crop.hello"
	OpList   = "crop.list"
	OpGet    = "crop.get"
	OpCreate = "crop.create"
	OpUpdate = "crop.update"
	OpDelete = "crop.delete"
)

// Adapter contributes the crop operations to a bridge.Registry.
type Adapter struct {
	address string
	codec   *soap.Codec
}

// NewAdapter creates the adapter for a crop service reachable at baseURL
// (scheme and host, e.g. "http://crop-service:8082").
func NewAdapter(baseURL string) *Adapter {
	return &Adapter{
		address: strings.TrimSuffix(baseURL, "/") + Path,
		codec:   soap.NewCodec(),
	}
}

func (a *Adapter) Family() string { return Family }

func (a *Adapter) Codec() bridge.Codec { return a.codec }

// Address returns the endpoint every crop operation posts to.
func (a *Adapter) Address() string { return a.address }

// Operations returns fresh descriptors for every crop operation.
func (a *Adapter) Operations() []*bridge.OperationDescriptor {
	idSlot := bridge.Param{Name: "id", Element: "arg0", Type: bridge.TypeInt, NonNegative: true}

	return []*bridge.OperationDescriptor{
		a.op(OpHello, "hello", "Greeting from the crop service", true, nil, textResult("hello")),
		a.op(OpList, "listCrops", "List every crop record", true, nil, extractList),
		a.op(OpGet, "getCrop", "Fetch one crop by id", true,
			[]bridge.Param{idSlot}, extractCrop),
		a.op(OpCreate, "createCrop", "Create a crop record", false,
			[]bridge.Param{
				{Name: "name", Element: "arg0", Type: bridge.TypeString, SingleLine: true},
				{Name: "type", Element: "arg1", Type: bridge.TypeString},
				{Name: "diseaseStatus", Element: "arg2", Type: bridge.TypeString},
			}, textResult("createCrop")),
		a.op(OpUpdate, "updateCrop", "Replace a crop record", false,
			[]bridge.Param{
				idSlot,
				{Name: "name", Element: "arg1", Type: bridge.TypeString, SingleLine: true},
				{Name: "type", Element: "arg2", Type: bridge.TypeString},
				{Name: "diseaseStatus", Element: "arg3", Type: bridge.TypeString},
			}, textResult("updateCrop")),
		a.op(OpDelete, "deleteCrop", "Delete a crop record", false,
			[]bridge.Param{idSlot}, textResult("deleteCrop")),
	}
}

func (a *Adapter) op(id, wire, description string, idempotent bool, params []bridge.Param, extract bridge.Extractor) *bridge.OperationDescriptor {
	return &bridge.OperationDescriptor{
		ID:          id,
		Family:      Family,
		Description: description,
		Address:     a.address,
		// JAX-WS matches the bare operation name.
		Action: bridge.Action{Header: "SOAPAction", Value: wire},
		Template: bridge.Template{
			Namespace: Namespace,
			Prefix:    prefix,
			Operation: wire,
		},
		Params:     params,
		Extract:    extract,
		Idempotent: idempotent,
	}
}
