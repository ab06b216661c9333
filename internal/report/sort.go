package report

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"cashbet-backoffice/internal/model"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// collator orders string columns the way the rendered tables do. The
// dashboard ships with one locale, so one collator is enough.
var collator = collate.New(language.French, collate.Loose)

// SortState tracks the active sort column and direction for a table.
// Toggling the same key flips the direction; a new key resets to ascending.
type SortState struct {
	Key       string
	Direction string
}

// Toggle records a click on a column header and returns the new state.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key && s.Direction == Asc {
		return SortState{Key: key, Direction: Desc}
	}
	return SortState{Key: key, Direction: Asc}
}

// Sort returns a sorted copy of rows. Numeric columns compare numerically,
// string columns via locale-aware collation. Unknown keys leave the order
// unchanged. Stable, so double-toggling a distinct-keyed column reproduces
// the original order.
func Sort(rows []model.ReportRow, key, direction string) []model.ReportRow {
	out := append([]model.ReportRow(nil), rows...)

	less := lessFunc(key)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if direction == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// lessFunc maps a column key to its comparison, or nil for unknown keys.
func lessFunc(key string) func(a, b model.ReportRow) bool {
	if num := numericOf(key); num != nil {
		return func(a, b model.ReportRow) bool { return num(a) < num(b) }
	}
	if str := stringOf(key); str != nil {
		return func(a, b model.ReportRow) bool {
			return collator.CompareString(str(a), str(b)) < 0
		}
	}
	return nil
}

func numericOf(key string) func(model.ReportRow) float64 {
	switch key {
	case "bet":
		return func(r model.ReportRow) float64 { return r.Bet }
	case "win":
		return func(r model.ReportRow) float64 { return r.Win }
	case "net", "amount":
		return func(r model.ReportRow) float64 { return r.Net }
	case "gamesPlayed":
		return func(r model.ReportRow) float64 { return float64(r.GamesPlayed) }
	case "jackpotContribution":
		return func(r model.ReportRow) float64 { return r.JackpotContribution }
	case "fee":
		return func(r model.ReportRow) float64 { return r.Fee }
	case "tip":
		return func(r model.ReportRow) float64 { return r.Tip }
	case "tournament":
		return func(r model.ReportRow) float64 {
			if r.Tournament {
				return 1
			}
			return 0
		}
	}
	return nil
}

func stringOf(key string) func(model.ReportRow) string {
	switch key {
	case "playerid":
		return func(r model.ReportRow) string { return r.PlayerID }
	case "date":
		return func(r model.ReportRow) string { return r.Date }
	case "system":
		return func(r model.ReportRow) string { return r.System }
	}
	return nil
}
