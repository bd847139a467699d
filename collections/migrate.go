package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"jmstructural/services"
)

// MigrateQuotationTotals re-derives the cached totals of every quotation
// from its items. Safe to call on every startup: quotations whose totals
// already match are left alone.
func MigrateQuotationTotals(app core.App, calc services.Calculator) error {
	fixed, err := services.RecalcAllQuotations(app, calc)
	if err != nil {
		return fmt.Errorf("migrate: recalc quotations: %w", err)
	}
	if fixed > 0 {
		zap.L().Info("migrate: corrected stale quotation totals", zap.Int("quotations", fixed))
	}
	return nil
}
