// Package crop connects the bridge to the crop records backend, a JAX-WS
// service in RPC/wrapped style: unqualified argN parameters, a bare
// SOAPAction and results under a <return> element.
package crop

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the crop category.
type Type string

const (
	TypeCereal    Type = "Cereal"
	TypeVegetable Type = "Vegetable"
	TypeFruit     Type = "Fruit"
	TypeLegume    Type = "Legume"
	TypeOilseed   Type = "Oilseed"
	TypeFiber     Type = "Fiber"
)

// Types lists every crop category in display order.
var Types = []Type{TypeCereal, TypeVegetable, TypeFruit, TypeLegume, TypeOilseed, TypeFiber}

// DiseaseStatus is the health state recorded for a crop.
type DiseaseStatus string

const (
	StatusHealthy        DiseaseStatus = "Healthy"
	StatusAtRisk         DiseaseStatus = "At Risk"
	StatusUnderTreatment DiseaseStatus = "Under Treatment"
	StatusModerateRisk   DiseaseStatus = "Moderate Risk"
	StatusHighRisk       DiseaseStatus = "High Risk"
	StatusUnknown        DiseaseStatus = "Unknown"
)

// DiseaseStatuses lists every health state in display order.
var DiseaseStatuses = []DiseaseStatus{
	StatusHealthy, StatusAtRisk, StatusUnderTreatment,
	StatusModerateRisk, StatusHighRisk, StatusUnknown,
}

// ParseType matches s against the known categories, ignoring case and
// surrounding space.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown crop type %q", s)
}

// ParseDiseaseStatus matches s against the known health states. Internal
// whitespace is collapsed, so "at  risk" and "At Risk" are the same state.
func ParseDiseaseStatus(s string) (DiseaseStatus, error) {
	norm := strings.Join(strings.Fields(s), " ")
	for _, st := range DiseaseStatuses {
		if strings.EqualFold(norm, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown disease status %q", s)
}

// Crop is one crop record.
type Crop struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Type          Type          `json:"type"`
	DiseaseStatus DiseaseStatus `json:"diseaseStatus"`
}

// Input carries the writable fields of a crop.
type Input struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	DiseaseStatus string `json:"diseaseStatus"`
}

// Validate normalizes the enumerated fields in place and reports every
// problem at once.
func (in *Input) Validate() error {
	var errs []error
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		errs = append(errs, errors.New("name is required"))
	} else if strings.ContainsAny(in.Name, "\r\n") {
		errs = append(errs, errors.New("name must be a single line"))
	}
	if t, err := ParseType(in.Type); err != nil {
		errs = append(errs, err)
	} else {
		in.Type = string(t)
	}
	if st, err := ParseDiseaseStatus(in.DiseaseStatus); err != nil {
		errs = append(errs, err)
	} else {
		in.DiseaseStatus = string(st)
	}
	return errors.Join(errs...)
}
