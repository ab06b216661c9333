package api

import (
	"context"
	"net/http"

	"cashbet-backoffice/internal/model"
)

// Reports wraps the `/hr/getDailyReport` endpoint.
type Reports struct {
	c *Client
}

// DailyReportData is the raw report payload for one date: the flat
// casino-wide rows keyed by player, the systems the operator may see, and
// each system's own rows keyed by player.
type DailyReportData struct {
	Casino         map[string]model.ReportRow            `json:"casino"`
	AllowedSystems []string                              `json:"allowed_systems"`
	EachSystem     map[string]map[string]model.ReportRow `json:"each_system"`
}

// DailyReport fetches the aggregate report for one date (YYYY-MM-DD).
func (r *Reports) DailyReport(ctx context.Context, date string) (*DailyReportData, error) {
	body := map[string]string{"date": date}
	var out struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    DailyReportData `json:"data"`
	}
	if err := r.c.do(ctx, http.MethodPost, "/hr/getDailyReport", nil, body, &out); err != nil {
		return nil, err
	}
	// The report endpoint signals failure in-band with a 200.
	if !out.Success {
		return nil, errf(KindUnknown, http.StatusOK, "daily report failed: %s", out.Message)
	}
	return &out.Data, nil
}
