package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emilyhoughkovacs/blok-persona-clustering/provider"
	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

func TestAnalyzeExtractsNarrative(t *testing.T) {
	var prompt string
	p := provider.Func(func(ctx context.Context, req provider.Request) (string, error) {
		prompt = req.User
		return `{"narrative": "## Segment Patterns\nMainstream accepts discounts."}`, nil
	})

	analysis, err := NewAnalyst(p).Analyze(context.Background(), fixtureResult())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !strings.Contains(prompt, `Mainstream Shopper on "Bulk order discount": accept`) {
		t.Errorf("prompt missing decision line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "call failed (simulated failure)") {
		t.Errorf("prompt missing failed call line:\n%s", prompt)
	}

	if analysis.Narrative != "## Segment Patterns\nMainstream accepts discounts." {
		t.Errorf("narrative = %q", analysis.Narrative)
	}
	if analysis.RunID != "run-fixture-12345" {
		t.Errorf("run id = %q", analysis.RunID)
	}
}

func TestAnalyzeFallsBackToRawReply(t *testing.T) {
	p := provider.Func(func(ctx context.Context, req provider.Request) (string, error) {
		return "The personas behaved as expected.", nil
	})

	analysis, err := NewAnalyst(p).Analyze(context.Background(), fixtureResult())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Narrative != "The personas behaved as expected." {
		t.Errorf("narrative = %q", analysis.Narrative)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		p := provider.Func(func(ctx context.Context, req provider.Request) (string, error) {
			return "", errors.New("boom")
		})
		if _, err := NewAnalyst(p).Analyze(context.Background(), fixtureResult()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty run", func(t *testing.T) {
		p := provider.Func(func(ctx context.Context, req provider.Request) (string, error) {
			return "unused", nil
		})
		if _, err := NewAnalyst(p).Analyze(context.Background(), &simulator.Result{RunID: "empty"}); err == nil {
			t.Error("expected error")
		}
	})
}
