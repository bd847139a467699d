package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"jmstructural/services"
)

// MaterialsResponse is the supplier price list for a location.
type MaterialsResponse struct {
	Location   string              `json:"location"`
	Multiplier decimal.Decimal     `json:"multiplier"`
	Materials  []services.Material `json:"materials"`
}

// HandleMaterials returns material prices adjusted for ?location=
// (default nairobi).
func HandleMaterials() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		location := e.Request.URL.Query().Get("location")
		if location == "" {
			location = "nairobi"
		}
		return e.JSON(http.StatusOK, MaterialsResponse{
			Location:   services.TitleLocation(location),
			Multiplier: services.LocationMultiplier(location),
			Materials:  services.MaterialPricing(location),
		})
	}
}
