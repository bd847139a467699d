package handlers

import (
	"context"

	"jmstructural/config"
	"jmstructural/services"
	"jmstructural/session"
)

// DesignGenerator produces candidate designs for a request.
type DesignGenerator interface {
	Generate(ctx context.Context, req services.DesignRequest, progress services.ProgressFunc) ([]services.Design, error)
}

// Deps carries the collaborators shared by the handlers.
type Deps struct {
	Config    *config.Config
	Sessions  *session.Store
	Generator DesignGenerator
}

func (d *Deps) quotationGenerator() *services.QuotationGenerator {
	return services.NewQuotationGenerator(d.Config.Calculator(), d.Config.TaxPercent, d.Config.Currency)
}
