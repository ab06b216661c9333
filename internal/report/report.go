// Package report reshapes the daily report payload into the two views the
// dashboard renders: the flat casino-wide table and the per-system tables.
package report

import (
	"context"
	"errors"
	"sort"
	"sync"

	"cashbet-backoffice/internal/api"
	"cashbet-backoffice/internal/model"
)

// ErrMissingDate is returned when Load is called without a date.
// The call never reaches the network.
var ErrMissingDate = errors.New("date is required to fetch the daily report")

// AllSystems is the synthetic selection meaning every system.
const AllSystems = "All"

// SystemRows is one system's rows in the grouped per-system view.
type SystemRows struct {
	System string            `json:"system"`
	Rows   []model.ReportRow `json:"rows"`
}

// ReportsAPI is the slice of the reports client the view model needs.
type ReportsAPI interface {
	DailyReport(ctx context.Context, date string) (*api.DailyReportData, error)
}

// View holds one loaded report decomposed into its render-ready parts.
// State is replaced only on a successful load.
type View struct {
	mu      sync.Mutex
	reports ReportsAPI

	date       string
	casino     []model.ReportRow
	systems    []string
	eachSystem map[string][]model.ReportRow
}

// NewView creates an empty report view model.
func NewView(reports ReportsAPI) *View {
	return &View{reports: reports}
}

// Load fetches and decomposes the report for one date (YYYY-MM-DD).
// An empty date fails fast with ErrMissingDate. On failure the previously
// loaded report is retained.
func (v *View) Load(ctx context.Context, date string) error {
	if date == "" {
		return ErrMissingDate
	}

	data, err := v.reports.DailyReport(ctx, date)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	casino := rowsOf(data.Casino)
	systems := append([]string{AllSystems}, data.AllowedSystems...)
	eachSystem := make(map[string][]model.ReportRow, len(data.EachSystem))
	for system, players := range data.EachSystem {
		eachSystem[system] = rowsOf(players)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.date = date
	v.casino = casino
	v.systems = systems
	v.eachSystem = eachSystem
	return nil
}

// rowsOf flattens a player-keyed map into rows ordered by player id, so
// repeated loads of the same payload render identically.
func rowsOf(players map[string]model.ReportRow) []model.ReportRow {
	keys := make([]string, 0, len(players))
	for k := range players {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]model.ReportRow, 0, len(players))
	for _, k := range keys {
		row := players[k]
		if row.PlayerID == "" {
			row.PlayerID = k
		}
		rows = append(rows, row)
	}
	return rows
}

// Date returns the date of the loaded report, or "" before the first load.
func (v *View) Date() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.date
}

// CasinoRows returns a copy of the flat casino-wide rows.
func (v *View) CasinoRows() []model.ReportRow {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.ReportRow(nil), v.casino...)
}

// Systems returns the selectable system names, AllSystems first.
func (v *View) Systems() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.systems...)
}

// FilterBySystem returns the per-system view for a selection. AllSystems
// yields every system's rows grouped by system name; otherwise only the
// selected system's rows. Pure over the loaded state, no network.
func (v *View) FilterBySystem(selection string) []SystemRows {
	v.mu.Lock()
	defer v.mu.Unlock()

	if selection != AllSystems {
		rows, ok := v.eachSystem[selection]
		if !ok {
			return nil
		}
		return []SystemRows{{System: selection, Rows: append([]model.ReportRow(nil), rows...)}}
	}

	names := make([]string, 0, len(v.eachSystem))
	for name := range v.eachSystem {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]SystemRows, 0, len(names))
	for _, name := range names {
		groups = append(groups, SystemRows{
			System: name,
			Rows:   append([]model.ReportRow(nil), v.eachSystem[name]...),
		})
	}
	return groups
}

// Paginate slices rows for a 1-indexed page. Out-of-range pages and page
// sizes below 1 yield an empty result rather than an error.
func Paginate(rows []model.ReportRow, page, pageSize int) []model.ReportRow {
	if page < 1 || pageSize < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return append([]model.ReportRow(nil), rows[start:end]...)
}
