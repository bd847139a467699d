package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DesignAnalysis bundles the derived views of a single design.
type DesignAnalysis struct {
	Estimate   []BudgetLine
	Schedule   []ScheduleTask
	Validation StructuralValidation
}

// AnalyzeDesign prices the material estimate for location, builds the
// construction schedule and re-runs structural validation concurrently. The
// first failure cancels the others.
func AnalyzeDesign(ctx context.Context, design Design, plotSize float64, location string) (*DesignAnalysis, error) {
	g, ctx := errgroup.WithContext(ctx)
	var out DesignAnalysis

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Estimate = PriceEstimate(EstimateBudget(design.Area), location)
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tasks := ConstructionSchedule(design.Floors)
		if err := ValidateSchedule(tasks); err != nil {
			return err
		}
		out.Schedule = tasks
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := DesignRequest{PlotSize: plotSize, Location: location}
		out.Validation = StructuralValidator{}.Validate(req, design)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
