package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// WizardSteps is the number of steps in the project input wizard.
const WizardSteps = 4

// ErrUnknownStep is returned for step numbers outside 1..WizardSteps.
var ErrUnknownStep = errors.New("unknown wizard step")

// Budget is the project budget captured in step 2.
type Budget struct {
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`
	Currency string  `json:"currency"`
}

// BudgetTypes lists the accepted budget types.
var BudgetTypes = []string{"total", "construction", "materials"}

// BudgetPresets are the quick-select budget amounts in KES.
var BudgetPresets = []struct {
	Label string
	Value float64
}{
	{"1M - 2M", 1_500_000},
	{"2M - 3M", 2_500_000},
	{"3M - 5M", 4_000_000},
	{"5M+", 6_000_000},
}

// Coordinates are kept for compatibility with stored projects; nothing
// populates them.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is the project location captured in step 3.
type Location struct {
	Address     string       `json:"address"`
	County      string       `json:"county"`
	Coordinates *Coordinates `json:"coordinates"`
}

// Label returns the county when set, otherwise the free-text address.
func (l Location) Label() string {
	if l.County != "" {
		return l.County
	}
	return l.Address
}

// ProjectInput is everything the wizard collects before a project is created.
type ProjectInput struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	ProjectType  string        `json:"project_type"`
	Budget       *Budget       `json:"budget"`
	Location     *Location     `json:"location"`
	Requirements *Requirements `json:"requirements"`
}

// ValidateStep checks the fields belonging to one wizard step. Step 4 is
// optional and only rejects values that are present but invalid.
func (p ProjectInput) ValidateStep(step int) error {
	switch step {
	case 1:
		return validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required, validation.By(notBlank), validation.Length(1, 200)),
		)
	case 2:
		if p.Budget == nil {
			return validation.Errors{"budget": validation.ErrRequired}
		}
		b := *p.Budget
		return validation.Errors{"budget": validation.ValidateStruct(&b,
			validation.Field(&b.Amount, validation.Required, validation.Min(0.0).Exclusive()),
			validation.Field(&b.Type, validation.In(anySlice(BudgetTypes)...)),
		)}.Filter()
	case 3:
		if p.Location == nil {
			return validation.Errors{"location": validation.ErrRequired}
		}
		if p.Location.Label() == "" {
			return validation.Errors{"location": validation.NewError("validation_location", "address or county is required")}
		}
		return nil
	case 4:
		if p.Requirements == nil {
			return nil
		}
		r := *p.Requirements
		return validation.Errors{"requirements": validation.ValidateStruct(&r,
			validation.Field(&r.Bedrooms, validation.Min(0)),
			validation.Field(&r.Bathrooms, validation.Min(0)),
			validation.Field(&r.Floors, validation.Min(0)),
			validation.Field(&r.PlotSize, validation.Min(0.0)),
			validation.Field(&r.BuildingType, validation.In(buildingTypeValues()...)),
			validation.Field(&r.Style, validation.In(styleValues()...)),
		)}.Filter()
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
}

// StepComplete reports whether a step has everything it needs to move on.
func (p ProjectInput) StepComplete(step int) bool {
	return p.ValidateStep(step) == nil
}

// Validate runs every step and merges the field errors. Project creation
// requires steps 1 to 3; step 4 falls back to defaults.
func (p ProjectInput) Validate() error {
	merged := validation.Errors{}
	for step := 1; step <= WizardSteps; step++ {
		err := p.ValidateStep(step)
		if err == nil {
			continue
		}
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			return err
		}
		for k, v := range verrs {
			merged[k] = v
		}
	}
	return merged.Filter()
}

// Normalized fills defaults: currency KES, budget type "total", project type
// "residential" and the default requirements.
func (p ProjectInput) Normalized() ProjectInput {
	if p.ProjectType == "" {
		p.ProjectType = "residential"
	}
	if p.Budget != nil {
		b := *p.Budget
		if b.Currency == "" {
			b.Currency = DefaultCurrency
		}
		if b.Type == "" {
			b.Type = "total"
		}
		p.Budget = &b
	}
	var req Requirements
	if p.Requirements != nil {
		req = *p.Requirements
	}
	req = req.WithDefaults()
	p.Requirements = &req
	return p
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
