package cli

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/benchmark"
)

func TestNewBenchmarkCmd(t *testing.T) {
	cmd := NewBenchmarkCmd(&globalOptions{})

	if cmd.Use != "benchmark" {
		t.Errorf("Expected Use='benchmark', got %q", cmd.Use)
	}
	for _, flag := range []string{"keyword", "keywords", "iterations", "kind", "json", "catalog"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Flag %q not registered", flag)
		}
	}
}

func TestBenchmarkCommand(t *testing.T) {
	env := newTestEnv(t)

	output, err := env.run(t, "", "benchmark", "--catalog", env.csvPath, "--iterations", "3", "-k", "ai", "-k", "quantum", "--json")
	if err != nil {
		t.Fatalf("benchmark failed: %v", err)
	}

	var result benchmark.Result
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, output)
	}
	if result.Keywords != 2 || result.Iterations != 3 || len(result.Stats) != 2 {
		t.Fatalf("Unexpected result: %+v", result)
	}
	for _, s := range result.Stats {
		if s.Queries != 6 || s.Errors != 0 || s.Empty != 3 {
			t.Errorf("Unexpected %s stats: %+v", s.Kind, s)
		}
	}

	// Benchmark queries stay out of history.
	if stats := historyStats(t, env); stats.Total != 0 {
		t.Errorf("Expected no history from a benchmark, got %d", stats.Total)
	}
}

func TestBenchmarkCommandDerivedKeywords(t *testing.T) {
	env := newTestEnv(t)

	output, err := env.run(t, "", "benchmark", "--catalog", env.csvPath, "--iterations", "1", "--kind", "recommend")
	if err != nil {
		t.Fatalf("benchmark failed: %v", err)
	}
	if !strings.Contains(output, "QUERY LATENCY") || !strings.Contains(output, "RECOMMEND") || strings.Contains(output, "SEARCH ") {
		t.Errorf("Unexpected output:\n%s", output)
	}

	if _, err := env.run(t, "", "benchmark", "--catalog", env.csvPath, "--iterations", "0"); err == nil {
		t.Error("Expected error for zero iterations")
	}
}
