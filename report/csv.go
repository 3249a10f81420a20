package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

// csvHeader is the fixed column schema of the result table.
var csvHeader = []string{
	"persona_id",
	"persona_name",
	"scenario_id",
	"scenario_name",
	"decision",
	"rationale",
	"response",
	"error",
}

// WriteCSV writes the result table to path, overwriting any previous file.
func WriteCSV(path string, res *simulator.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSVTo(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSVTo streams the result table to w in record order.
func WriteCSVTo(w io.Writer, res *simulator.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range res.Records {
		row := []string{
			rec.PersonaID,
			rec.PersonaName,
			rec.ScenarioID,
			rec.ScenarioName,
			string(rec.Decision),
			rec.Rationale,
			rec.Response,
			rec.Err,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s/%s: %w", rec.PersonaID, rec.ScenarioID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
