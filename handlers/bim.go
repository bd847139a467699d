package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"jmstructural/services"
)

type exportIFCRequest struct {
	DesignID string `json:"designId"`
}

// BIMExportResponse describes a recorded IFC export. No file is produced.
type BIMExportResponse struct {
	ModelID    string   `json:"modelId"`
	DesignID   string   `json:"designId"`
	FilePath   string   `json:"filePath"`
	ModelType  string   `json:"modelType"`
	Components []string `json:"components"`
	Status     string   `json:"status"`
}

// HandleExportIFC records a BIM export for a design.
func HandleExportIFC(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermExportIFC); err != nil {
			return respondError(e, "export_ifc", err)
		}
		var body exportIFCRequest
		if err := e.BindBody(&body); err != nil || body.DesignID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing designId")
		}

		rec, err := services.RecordBIMExport(app, body.DesignID, uuid.NewString())
		if err != nil {
			return respondError(e, "export_ifc", err)
		}
		var components []string
		if err := rec.UnmarshalJSONField("components", &components); err != nil {
			return respondError(e, "export_ifc", err)
		}

		SetToast(e, "success", "IFC export recorded")
		return e.JSON(http.StatusCreated, BIMExportResponse{
			ModelID:    rec.GetString("model_id"),
			DesignID:   body.DesignID,
			FilePath:   rec.GetString("file_path"),
			ModelType:  rec.GetString("model_type"),
			Components: components,
			Status:     "exported",
		})
	}
}
