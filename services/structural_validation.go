package services

import (
	"fmt"
	"math"
)

// BuildingCode is the code reference every structural check cites.
const BuildingCode = "Kenya Building Code 2018"

// StructuralValidation is the outcome of checking a design against the
// building code rules.
type StructuralValidation struct {
	ComplianceScore int      `json:"complianceScore"`
	IsCompliant     bool     `json:"isCompliant"`
	Violations      []string `json:"violations"`
	Warnings        []string `json:"warnings"`
	CodeReference   string   `json:"codeReference"`
}

// Minimum habitable sizes in m².
const (
	minBedroomArea  = 9.0
	minBathroomArea = 2.5
	minKitchenArea  = 5.0
)

// maxPlotCoverage is the largest share of the plot a ground floor may cover.
const maxPlotCoverage = 0.65

// StructuralValidator applies the simplified code rules. The zero value is
// ready to use.
type StructuralValidator struct{}

// Validate scores design: every warning costs 5 points and every violation
// 20. A design is compliant when it has no violations and scores at least 70.
func (StructuralValidator) Validate(req DesignRequest, design Design) StructuralValidation {
	v := StructuralValidation{
		Violations:    []string{},
		Warnings:      []string{},
		CodeReference: BuildingCode,
	}

	floors := max(design.Floors, 1)
	footprint := design.Area / float64(floors)
	if req.PlotSize > 0 && footprint > req.PlotSize*maxPlotCoverage {
		v.Violations = append(v.Violations, fmt.Sprintf(
			"Ground coverage %.0f%% exceeds the %.0f%% limit",
			footprint/req.PlotSize*100, maxPlotCoverage*100))
	}

	if design.BuildingType == BuildingBungalow && design.Floors > 1 {
		v.Warnings = append(v.Warnings, "Bungalow designs are expected to be single storey")
	}
	if design.Floors > 4 && design.BuildingType != BuildingApartment && design.BuildingType != BuildingCommercial {
		v.Violations = append(v.Violations, "Residential houses above four storeys require an apartment or commercial classification")
	}
	if design.Bedrooms > 0 && design.Bathrooms == 0 {
		v.Violations = append(v.Violations, "At least one bathroom is required for habitable designs")
	}

	for _, r := range design.Rooms {
		switch r.Type {
		case "bedroom":
			if r.Area < minBedroomArea {
				v.Warnings = append(v.Warnings, fmt.Sprintf("%s is below the recommended %.0f m²", r.Name, minBedroomArea))
			}
		case "bathroom":
			if r.Area < minBathroomArea {
				v.Warnings = append(v.Warnings, fmt.Sprintf("%s is below the recommended %.1f m²", r.Name, minBathroomArea))
			}
		case "kitchen":
			if r.Area < minKitchenArea {
				v.Warnings = append(v.Warnings, fmt.Sprintf("%s is below the recommended %.0f m²", r.Name, minKitchenArea))
			}
		}
	}

	score := 100 - 5*len(v.Warnings) - 20*len(v.Violations)
	v.ComplianceScore = int(math.Max(0, float64(score)))
	v.IsCompliant = len(v.Violations) == 0 && v.ComplianceScore >= 70
	return v
}
