package services

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// BuildingType is the kind of structure a design is generated for.
type BuildingType string

const (
	BuildingBungalow   BuildingType = "bungalow"
	BuildingMaisonette BuildingType = "maisonette"
	BuildingApartment  BuildingType = "apartment"
	BuildingCommercial BuildingType = "commercial"
)

// BuildingTypes lists every supported building type in display order.
var BuildingTypes = []BuildingType{BuildingBungalow, BuildingMaisonette, BuildingApartment, BuildingCommercial}

// Style is the architectural style requested for a design.
type Style string

const (
	StyleModern       Style = "modern"
	StyleTraditional  Style = "traditional"
	StyleContemporary Style = "contemporary"
	StyleMinimalist   Style = "minimalist"
)

// Styles lists every supported style in display order.
var Styles = []Style{StyleModern, StyleTraditional, StyleContemporary, StyleMinimalist}

// DesignRequest carries the parameters the design generator works from.
type DesignRequest struct {
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	PlotSize     float64      `json:"plotSize"`
	Budget       float64      `json:"budget"`
	Location     string       `json:"location"`
	BuildingType BuildingType `json:"buildingType"`
	Style        Style        `json:"style"`
	Floors       int          `json:"floors"`
}

// Validate checks the request before any generation work starts.
func (r DesignRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Bedrooms, validation.Min(0)),
		validation.Field(&r.Bathrooms, validation.Min(0)),
		validation.Field(&r.PlotSize, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Budget, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Location, validation.Required, validation.By(notBlank)),
		validation.Field(&r.BuildingType, validation.Required, validation.In(buildingTypeValues()...)),
		validation.Field(&r.Style, validation.Required, validation.In(styleValues()...)),
		validation.Field(&r.Floors, validation.Required, validation.Min(1)),
	)
}

// Requirements are the optional building requirements of a project. Unset
// fields are replaced by defaults before a design is generated. Bedrooms and
// bathrooms are pointers because an explicit zero is a valid request.
type Requirements struct {
	Bedrooms     *int         `json:"bedrooms,omitempty"`
	Bathrooms    *int         `json:"bathrooms,omitempty"`
	Floors       int          `json:"floors"`
	BuildingType BuildingType `json:"buildingType"`
	Style        Style        `json:"style"`
	PlotSize     float64      `json:"plotSize"`
}

// Default requirement values applied when the requirements step is skipped.
const (
	DefaultBedrooms  = 3
	DefaultBathrooms = 2
)

// DefaultRequirements returns the requirements used when the wizard step is
// skipped.
func DefaultRequirements() Requirements {
	return Requirements{
		Bedrooms:     IntPtr(DefaultBedrooms),
		Bathrooms:    IntPtr(DefaultBathrooms),
		Floors:       1,
		BuildingType: BuildingBungalow,
		Style:        StyleModern,
		PlotSize:     DefaultPlotSize,
	}
}

// DefaultPlotSize is used when a project does not state its plot size, in m².
const DefaultPlotSize = 200.0

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// BedroomCount returns the bedroom count, or the default when unset.
func (r Requirements) BedroomCount() int {
	if r.Bedrooms == nil {
		return DefaultBedrooms
	}
	return *r.Bedrooms
}

// BathroomCount returns the bathroom count, or the default when unset.
func (r Requirements) BathroomCount() int {
	if r.Bathrooms == nil {
		return DefaultBathrooms
	}
	return *r.Bathrooms
}

// WithDefaults fills unset requirement fields. An explicit zero bedroom or
// bathroom count is kept.
func (r Requirements) WithDefaults() Requirements {
	def := DefaultRequirements()
	r.Bedrooms = IntPtr(r.BedroomCount())
	r.Bathrooms = IntPtr(r.BathroomCount())
	if r.Floors == 0 {
		r.Floors = def.Floors
	}
	if r.BuildingType == "" {
		r.BuildingType = def.BuildingType
	}
	if r.Style == "" {
		r.Style = def.Style
	}
	if r.PlotSize == 0 {
		r.PlotSize = def.PlotSize
	}
	return r
}

// NewDesignRequest combines project budget, location and requirements.
func NewDesignRequest(budget float64, location string, req Requirements) DesignRequest {
	req = req.WithDefaults()
	return DesignRequest{
		Bedrooms:     *req.Bedrooms,
		Bathrooms:    *req.Bathrooms,
		PlotSize:     req.PlotSize,
		Budget:       budget,
		Location:     location,
		BuildingType: req.BuildingType,
		Style:        req.Style,
		Floors:       req.Floors,
	}
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
}

func buildingTypeValues() []any {
	out := make([]any, len(BuildingTypes))
	for i, v := range BuildingTypes {
		out[i] = v
	}
	return out
}

func styleValues() []any {
	out := make([]any, len(Styles))
	for i, v := range Styles {
		out[i] = v
	}
	return out
}
