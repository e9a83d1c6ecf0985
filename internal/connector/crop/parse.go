package crop

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// JAX-WS wraps every answer in <opResponse><return>...</return></opResponse>.
func returnElement(root *soap.Node, wire string) (*soap.Node, error) {
	resp, err := soap.ResponseElement(root, wire+"Response")
	if err != nil {
		return nil, err
	}
	ret := resp.Child("return")
	if ret == nil || ret.IsNil() {
		return nil, bridge.ErrNoResult
	}
	return ret, nil
}

// textResult extracts the plain string returned by hello and the write
// operations.
func textResult(wire string) bridge.Extractor {
	return soap.Extract(func(root *soap.Node) (any, error) {
		ret, err := returnElement(root, wire)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(ret.Text), nil
	})
}

var extractCrop = soap.Extract(func(root *soap.Node) (any, error) {
	ret, err := returnElement(root, "getCrop")
	if err != nil {
		return (*Crop)(nil), err
	}
	c, err := cropFromFields(ret)
	if err != nil {
		return (*Crop)(nil), err
	}
	return c, nil
})

// cropFromFields reads a JAXB-serialized Crop. No fields at all is an empty
// answer; any present field forces all of them to be present and valid.
func cropFromFields(ret *soap.Node) (*Crop, error) {
	fields := map[string]string{}
	for _, name := range []string{"id", "name", "type", "diseaseStatus"} {
		if v, ok := ret.Field(name); ok {
			fields[name] = v
		}
	}
	if len(fields) == 0 {
		return nil, bridge.ErrNoResult
	}
	return buildCrop(fields["id"], fields["name"], fields["type"], fields["diseaseStatus"], func(label string) bool {
		_, ok := fields[label]
		return ok
	})
}

func buildCrop(id, name, typ, status string, present func(string) bool) (*Crop, error) {
	var missing []string
	for _, label := range []string{"id", "name", "type", "diseaseStatus"} {
		if !present(label) {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: crop record missing %s", bridge.ErrMalformedResponse, strings.Join(missing, ", "))
	}

	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: crop id %q is not a non-negative integer", bridge.ErrMalformedResponse, id)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: crop %d has an empty name", bridge.ErrMalformedResponse, n)
	}
	t, err := ParseType(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: crop %d: %v", bridge.ErrMalformedResponse, n, err)
	}
	st, err := ParseDiseaseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: crop %d: %v", bridge.ErrMalformedResponse, n, err)
	}
	return &Crop{ID: n, Name: name, Type: t, DiseaseStatus: st}, nil
}

// =============================================================================
// LIST
// =============================================================================

// listCrops answers with one text block, one record per line:
//
//	ID: 1, Name: Wheat, Type: Cereal, Status: Healthy
//
// Fields always come in that order. Names are free text, so the name runs up
// to the last "Type:" label on the line. Lines without any label are prose
// (headers, blank lines) and are skipped.
var (
	labelPattern  = regexp.MustCompile(`(?i)\b(disease\s*status|id|name|type|status)\s*:`)
	recordPattern = regexp.MustCompile(`(?i)^\s*id\s*:\s*(\S*?)\s*[,;|]\s*name\s*:(.*)[,;|]\s*type\s*:(.*?)[,;|]\s*(?:disease\s*)?status\s*:(.*?)[,;|]?\s*$`)
)

var extractList = soap.Extract(func(root *soap.Node) (any, error) {
	ret, err := returnElement(root, "listCrops")
	if err != nil {
		return []Crop{}, err
	}
	crops, err := ParseList(ret.Text)
	if err != nil {
		return []Crop{}, err
	}
	if len(crops) == 0 {
		return crops, bridge.ErrNoResult
	}
	return crops, nil
})

// ParseList parses the delimited listCrops block. The result preserves line
// order and is never nil.
func ParseList(block string) ([]Crop, error) {
	crops := []Crop{}
	for i, line := range strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n") {
		c, ok, err := parseLine(line)
		if err != nil {
			return []Crop{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		if ok {
			crops = append(crops, *c)
		}
	}
	return crops, nil
}

func parseLine(line string) (*Crop, bool, error) {
	if !labelPattern.MatchString(line) {
		return nil, false, nil
	}
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false, fmt.Errorf("%w: record %q is not \"ID, Name, Type, Status\"", bridge.ErrMalformedResponse, strings.TrimSpace(line))
	}
	c, err := buildCrop(m[1], strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), strings.TrimSpace(m[4]), func(string) bool { return true })
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}
