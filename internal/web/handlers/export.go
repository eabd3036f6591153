package handlers

import (
	"encoding/csv"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/resqbites/matcher/internal/store"
)

// ExportHandler handles data export endpoints
type ExportHandler struct {
	Store  *store.Store
	Config *Config
}

var exportHeader = []string{
	"donor_id", "recipient_id", "match_percentage", "distance_km",
	"food_category", "quantity_kg", "hours_to_expiry", "priority",
	"donor_lat", "donor_lon", "recipient_lat", "recipient_lon",
	"expiry_label", "expiry_urgency", "score_tier",
}

// ExportCSV streams the filtered, sorted view as CSV
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.ExportEnabled {
		writeError(w, http.StatusForbidden, "export_disabled", "Export feature disabled")
		return
	}

	fs, err := parseFilterSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	records := h.Store.View(fs)

	filename := "matches-" + strings.ToLower(strings.ReplaceAll(fs.Category, " ", "-")) + "-" + string(fs.Sort) + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		log.Printf("csv export: %v", err)
		return
	}

	for _, rec := range records {
		v := rec.View()
		row := []string{
			v.DonorID, v.RecipientID, strconv.Itoa(v.MatchPercentage), formatFloat(v.DistanceKm),
			v.FoodCategory, formatFloat(v.QuantityKg), formatFloat(v.HoursToExpiry), string(v.Priority),
			formatFloat(v.DonorLat), formatFloat(v.DonorLon), formatFloat(v.RecipientLat), formatFloat(v.RecipientLon),
			v.ExpiryLabel, string(v.Urgency), string(v.Tier),
		}
		if err := writer.Write(row); err != nil {
			log.Printf("csv export: %v", err)
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("csv export: %v", err)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
