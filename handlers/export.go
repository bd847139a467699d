package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"jmstructural/services"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

type exportFormat struct {
	ext         string
	contentType string
	generate    func(services.ExportData) ([]byte, error)
}

var exportFormats = map[string]exportFormat{
	"excel": {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", services.GenerateExcel},
	"pdf":   {"pdf", "application/pdf", services.GeneratePDF},
}

// HandleQuotationExport returns a handler that generates and downloads a
// quotation as Excel or PDF, chosen by the {format} path value.
func HandleQuotationExport(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		format, ok := exportFormats[e.Request.PathValue("format")]
		if !ok {
			return e.String(http.StatusNotFound, "Unknown export format")
		}
		if err := requirePermission(e, services.PermDownloadBOM); err != nil {
			return respondError(e, "export_quotation", err)
		}

		data, err := services.QuotationExportData(app, deps.Config.Calculator(), e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "export_quotation", err)
		}

		body, err := format.generate(data)
		if err != nil {
			return respondError(e, "export_quotation", fmt.Errorf("generate %s: %w", format.ext, err))
		}

		filename := fmt.Sprintf("%s_%s.%s", sanitizeFilename(data.QuotationNumber), sanitizeFilename(data.ProjectName), format.ext)
		e.Response.Header().Set("Content-Type", format.contentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(body)
		return err
	}
}
