package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

// Artifact file names inside the output directory. Each run overwrites
// them.
const (
	CSVFileName      = "simulation_results.csv"
	HeatmapFileName  = "decision_heatmap.png"
	SummaryFileName  = "validation_report.txt"
	AnalysisFileName = "segment_analysis.md"
)

// Paths lists where a run's artifacts were written.
type Paths struct {
	CSV     string
	Heatmap string
	Summary string
}

// Writer renders every artifact of a finished run into one directory.
type Writer struct {
	Dir string
}

// Write produces the CSV table, the heatmap and the validation report,
// creating the directory if needed. It returns the artifact paths together
// with the computed summary so callers can print it.
func (w Writer) Write(res *simulator.Result) (Paths, *Summary, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return Paths{}, nil, fmt.Errorf("create output dir %s: %w", w.Dir, err)
	}

	paths := Paths{
		CSV:     filepath.Join(w.Dir, CSVFileName),
		Heatmap: filepath.Join(w.Dir, HeatmapFileName),
		Summary: filepath.Join(w.Dir, SummaryFileName),
	}

	if err := WriteCSV(paths.CSV, res); err != nil {
		return paths, nil, err
	}
	if err := WriteHeatmap(paths.Heatmap, res); err != nil {
		return paths, nil, err
	}

	summary := Summarize(res)
	if err := os.WriteFile(paths.Summary, []byte(summary.Text()), 0644); err != nil {
		return paths, nil, fmt.Errorf("write %s: %w", paths.Summary, err)
	}

	return paths, summary, nil
}

// WriteAnalysis saves a model-written narrative next to the other artifacts
// and returns its path.
func (w Writer) WriteAnalysis(a *Analysis) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", w.Dir, err)
	}

	path := filepath.Join(w.Dir, AnalysisFileName)
	body := fmt.Sprintf("# Segment Analysis\n\nRun %s, generated %s.\n\n%s\n",
		a.RunID, a.GeneratedAt.Format(time.RFC3339), a.Narrative)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
