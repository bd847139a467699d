package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"jmstructural/collections"
	"jmstructural/config"
	"jmstructural/handlers"
	"jmstructural/logging"
	"jmstructural/services"
	"jmstructural/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, flush, err := logging.Install(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer flush()

	app := pocketbase.New()
	deps := &handlers.Deps{
		Config:    cfg,
		Sessions:  session.NewStore(session.RecordKV{App: app}, logger),
		Generator: services.NewMockDesignGenerator(cfg.GenerationLatency, cfg.GenerationSeed),
	}

	app.RootCmd.AddCommand(newRecalcCommand(app, cfg))

	// Create collections, seed demo data and repair stale totals on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := collections.Setup(app); err != nil {
			return err
		}
		if cfg.SeedData {
			if err := collections.Seed(app, cfg.Calculator(), cfg.TaxPercent); err != nil {
				logger.Warn("seed data failed", zap.Error(err))
			}
		}
		if err := collections.MigrateQuotationTotals(app, cfg.Calculator()); err != nil {
			logger.Warn("quotation totals migration failed", zap.Error(err))
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.BindFunc(handlers.RequestLogger(logger))
		se.Router.BindFunc(handlers.SessionMiddleware())

		// ── Projects ─────────────────────────────────────────────
		se.Router.GET("/api/projects/", handlers.HandleProjectList(app))
		se.Router.POST("/api/projects/", handlers.HandleProjectCreate(app, deps))
		se.Router.GET("/api/projects/{id}/", handlers.HandleProjectDetail(app))
		se.Router.POST("/api/projects/{id}/generate_design/", handlers.HandleGenerateDesign(app, deps))

		// ── Designs ──────────────────────────────────────────────
		se.Router.GET("/api/designs/", handlers.HandleDesignList(app))
		se.Router.POST("/api/designs/{id}/validate_structure/", handlers.HandleValidateStructure(app))
		se.Router.POST("/api/designs/{id}/select/", handlers.HandleSelectDesign(app, deps))
		se.Router.GET("/api/designs/{id}/floorplan.svg", handlers.HandleFloorPlanSVG(app))
		se.Router.GET("/api/designs/{id}/schedule/", handlers.HandleDesignSchedule(app))

		// ── Quotations ───────────────────────────────────────────
		// generate/ must be registered before {id}/ routes
		se.Router.POST("/api/quotations/generate/", handlers.HandleGenerateQuotation(app, deps))
		se.Router.GET("/api/quotations/", handlers.HandleQuotationList(app))
		se.Router.GET("/api/quotations/{id}/", handlers.HandleQuotationDetail(app, deps))
		se.Router.POST("/api/quotations/{id}/items/", handlers.HandleAddItem(app, deps))
		se.Router.PATCH("/api/quotations/{id}/items/{index}/", handlers.HandleEditItem(app, deps))
		se.Router.DELETE("/api/quotations/{id}/items/{index}/", handlers.HandleDeleteItem(app, deps))
		se.Router.GET("/api/quotations/{id}/export/{format}", handlers.HandleQuotationExport(app, deps))

		// ── BIM, materials, session ──────────────────────────────
		se.Router.POST("/api/bim-models/export_ifc/", handlers.HandleExportIFC(app))
		se.Router.GET("/api/materials/", handlers.HandleMaterials())
		se.Router.GET("/api/session/", handlers.HandleSessionState(deps))

		// ── Pages ────────────────────────────────────────────────
		se.Router.GET("/quotation", handlers.HandleQuotationPage(app, deps))
		se.Router.GET("/design-input", handlers.HandleDesignInputPage(app, deps))
		se.Router.GET("/{$}", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/design-input")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
