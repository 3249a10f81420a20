package report

import (
	"bytes"
	"encoding/csv"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emilyhoughkovacs/blok-persona-clustering/decision"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

func TestWriteCSVTo(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSVTo(&buf, fixtureResult()); err != nil {
		t.Fatalf("WriteCSVTo failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back csv failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want header plus 4 records", len(rows))
	}

	wantHeader := []string{"persona_id", "persona_name", "scenario_id", "scenario_name", "decision", "rationale", "response", "error"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	first := rows[1]
	if first[0] != "0" || first[4] != "accept" || first[5] != "Cheap, and I need it." {
		t.Errorf("first row = %v", first)
	}
	last := rows[4]
	if last[7] != "simulated failure" {
		t.Errorf("failed record error column = %q", last[7])
	}
}

func TestWriteCSVQuotesAwkwardText(t *testing.T) {
	res := &simulator.Result{
		RunID: "r",
		Records: []simulator.Record{{
			PersonaID: "p1", ScenarioID: "s1",
			Decision: decision.Accept,
			Response: "Line one, with commas\nand a second line with \"quotes\"",
		}},
	}

	var buf bytes.Buffer
	if err := WriteCSVTo(&buf, res); err != nil {
		t.Fatalf("WriteCSVTo failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back csv failed: %v", err)
	}
	if got := rows[1][6]; got != res.Records[0].Response {
		t.Errorf("response did not survive the round trip: %q", got)
	}
}

func TestWriteHeatmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatmap.png")
	if err := WriteHeatmap(path, fixtureResult()); err != nil {
		t.Fatalf("WriteHeatmap failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open heatmap: %v", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		t.Errorf("degenerate image %dx%d", cfg.Width, cfg.Height)
	}
}

func TestWriteHeatmapRejectsEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatmap.png")
	if err := WriteHeatmap(path, &simulator.Result{RunID: "empty"}); err == nil {
		t.Fatal("expected error for a run without records")
	}
}

func TestWriterProducesAllArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	paths, summary, err := Writer{Dir: dir}.Write(fixtureResult())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if summary.Total != 4 {
		t.Errorf("summary total = %d", summary.Total)
	}

	for name, path := range map[string]string{
		"csv":     paths.CSV,
		"heatmap": paths.Heatmap,
		"summary": paths.Summary,
	} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("%s artifact missing: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s artifact is empty", name)
		}
	}
}

func TestWriteAnalysis(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	a := &Analysis{
		RunID:       "run-fixture-12345",
		Narrative:   "## Segment Patterns\nEveryone liked the cashback.",
		GeneratedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	path, err := Writer{Dir: dir}.WriteAnalysis(a)
	if err != nil {
		t.Fatalf("WriteAnalysis failed: %v", err)
	}
	if filepath.Base(path) != AnalysisFileName {
		t.Errorf("path = %q, want it to end in %s", path, AnalysisFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read analysis: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "# Segment Analysis") {
		t.Errorf("missing title:\n%s", body)
	}
	if !strings.Contains(body, a.Narrative) {
		t.Errorf("missing narrative:\n%s", body)
	}
	if !strings.Contains(body, "run-fixture-12345") {
		t.Errorf("missing run id:\n%s", body)
	}
}

func TestWriterOverwritesPreviousRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	w := Writer{Dir: dir}

	if _, _, err := w.Write(fixtureResult()); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := fixtureResult()
	second.Records = second.Records[:1]
	paths, summary, err := w.Write(second)
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if summary.Total != 1 {
		t.Errorf("summary total = %d, want the overwrite", summary.Total)
	}

	data, err := os.ReadFile(paths.CSV)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("csv has %d rows after overwrite, want 2", len(rows))
	}
}
