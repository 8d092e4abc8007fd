// Package export writes solved lineups in formats meant for spreadsheets and
// other tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/lineup/core/model"
)

// WriteJSON writes the lineups to w as an indented JSON array.
func WriteJSON(w io.Writer, lineups []model.Lineup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if lineups == nil {
		lineups = []model.Lineup{}
	}
	return enc.Encode(lineups)
}

// WriteCSV writes one row per lineup, best first. Drivers are joined with
// "|" in a single column.
func WriteCSV(w io.Writer, lineups []model.Lineup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "drivers", "constructor", "turbo", "cost", "score", "objective"}); err != nil {
		return err
	}
	for i, l := range lineups {
		names := make([]string, len(l.Individuals))
		for j, id := range l.Individuals {
			names[j] = id.Name
		}
		rec := []string{
			strconv.Itoa(i + 1),
			strings.Join(names, "|"),
			l.Composite.Name,
			l.Turbo.Name,
			strconv.FormatFloat(l.TotalCost, 'f', -1, 64),
			strconv.FormatFloat(l.TotalScore, 'f', -1, 64),
			strconv.FormatFloat(l.Objective, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
