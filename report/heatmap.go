package report

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

const (
	cellWidth    = 120.0
	cellHeight   = 44.0
	leftMargin   = 200.0
	topMargin    = 64.0
	bottomMargin = 48.0
	rightMargin  = 20.0
)

type rgb struct{ r, g, b int }

var decisionColors = map[decision.Decision]rgb{
	decision.Accept:  {46, 160, 67},
	decision.Reject:  {218, 54, 51},
	decision.Unclear: {176, 176, 176},
}

var failedColor = rgb{64, 64, 64}

// WriteHeatmap renders the persona-by-scenario decision grid as a PNG,
// overwriting any previous file. Rows are personas and columns are
// scenarios, both in record order; pairs missing from an interrupted run
// stay blank.
func WriteHeatmap(path string, res *simulator.Result) error {
	personas, scenarios, cells := gridFrom(res)
	if len(personas) == 0 || len(scenarios) == 0 {
		return fmt.Errorf("heatmap needs at least one record")
	}

	width := int(leftMargin + float64(len(scenarios))*cellWidth + rightMargin)
	height := int(topMargin + float64(len(personas))*cellHeight + bottomMargin)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB255(32, 32, 32)
	title := fmt.Sprintf("Persona decisions by scenario (run %s)", shortID(res.RunID))
	dc.DrawStringAnchored(title, float64(width)/2, topMargin/3, 0.5, 0.5)

	for si, name := range scenarios {
		x := leftMargin + float64(si)*cellWidth + cellWidth/2
		dc.DrawStringAnchored(truncate(name, 16), x, topMargin-12, 0.5, 0.5)
	}

	for pi, name := range personas {
		y := topMargin + float64(pi)*cellHeight
		dc.SetRGB255(32, 32, 32)
		dc.DrawStringAnchored(truncate(name, 26), leftMargin-10, y+cellHeight/2, 1, 0.5)

		for si := range scenarios {
			x := leftMargin + float64(si)*cellWidth
			rec, ok := cells[cellKey{pi, si}]
			drawCell(dc, x, y, rec, ok)
		}
	}

	drawLegend(dc, float64(height)-bottomMargin/2)

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save heatmap %s: %w", path, err)
	}
	return nil
}

type cellKey struct{ row, col int }

// gridFrom lays records out on a (persona, scenario) grid, keeping
// first-appearance order on both axes.
func gridFrom(res *simulator.Result) ([]string, []string, map[cellKey]simulator.Record) {
	personaIdx := make(map[string]int)
	scenarioIdx := make(map[string]int)
	var personas, scenarios []string
	cells := make(map[cellKey]simulator.Record)

	for _, rec := range res.Records {
		pi, ok := personaIdx[rec.PersonaID]
		if !ok {
			pi = len(personas)
			personaIdx[rec.PersonaID] = pi
			personas = append(personas, labelOr(rec.PersonaName, rec.PersonaID))
		}
		si, ok := scenarioIdx[rec.ScenarioID]
		if !ok {
			si = len(scenarios)
			scenarioIdx[rec.ScenarioID] = si
			scenarios = append(scenarios, labelOr(rec.ScenarioName, rec.ScenarioID))
		}
		cells[cellKey{pi, si}] = rec
	}
	return personas, scenarios, cells
}

func drawCell(dc *gg.Context, x, y float64, rec simulator.Record, ok bool) {
	const pad = 3.0
	dc.DrawRectangle(x+pad, y+pad, cellWidth-2*pad, cellHeight-2*pad)
	if !ok {
		dc.SetRGB255(245, 245, 245)
		dc.Fill()
		return
	}

	c, label := decisionColors[rec.Decision], string(rec.Decision)
	if rec.Failed() {
		c, label = failedColor, "error"
	}
	dc.SetRGB255(c.r, c.g, c.b)
	dc.Fill()

	if rec.Decision == decision.Unclear && !rec.Failed() {
		dc.SetRGB255(32, 32, 32)
	} else {
		dc.SetRGB255(255, 255, 255)
	}
	dc.DrawStringAnchored(label, x+cellWidth/2, y+cellHeight/2, 0.5, 0.5)
}

func drawLegend(dc *gg.Context, y float64) {
	entries := []struct {
		label string
		color rgb
	}{
		{"accept", decisionColors[decision.Accept]},
		{"reject", decisionColors[decision.Reject]},
		{"unclear", decisionColors[decision.Unclear]},
		{"failed call", failedColor},
	}

	x := leftMargin
	for _, e := range entries {
		dc.SetRGB255(e.color.r, e.color.g, e.color.b)
		dc.DrawRectangle(x, y-7, 14, 14)
		dc.Fill()
		dc.SetRGB255(32, 32, 32)
		dc.DrawStringAnchored(e.label, x+20, y, 0, 0.5)
		x += 20 + float64(len(e.label))*7 + 24
	}
}

func labelOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
