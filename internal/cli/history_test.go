package cli

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/storage"
)

func historyStats(t *testing.T, env *testEnv) storage.HistoryStats {
	t.Helper()
	output, err := env.run(t, "", "history", "status", "--json")
	if err != nil {
		t.Fatalf("history status failed: %v", err)
	}
	var stats storage.HistoryStats
	if err := json.Unmarshal([]byte(output), &stats); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, output)
	}
	return stats
}

func TestNewHistoryCmd(t *testing.T) {
	cmd := NewHistoryCmd(&globalOptions{})

	subs := map[string]bool{}
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	for _, name := range []string{"status", "clear", "cleanup"} {
		if !subs[name] {
			t.Errorf("Subcommand %q not registered", name)
		}
	}
}

func TestHistoryRecordsQueries(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{
		{"recommend", "ai", "--catalog", env.csvPath},
		{"recommend", "quantum", "--catalog", env.csvPath},
		{"search", "ai", "--catalog", env.csvPath},
	} {
		if _, err := env.run(t, "", args...); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}

	stats := historyStats(t, env)
	if stats.Total != 3 {
		t.Errorf("Expected 3 queries, got %d", stats.Total)
	}
	if stats.ByKind[storage.KindRecommend] != 2 || stats.ByKind[storage.KindSearch] != 1 {
		t.Errorf("Unexpected kinds: %v", stats.ByKind)
	}
	if stats.Empty != 1 {
		t.Errorf("Expected 1 empty result, got %d", stats.Empty)
	}
	if stats.UniqueQuery != 2 {
		t.Errorf("Expected 2 unique keywords, got %d", stats.UniqueQuery)
	}

	output, err := env.run(t, "", "history", "status", "--days", "7")
	if err != nil {
		t.Fatalf("history status failed: %v", err)
	}
	if !strings.Contains(output, "last 7 days") || !strings.Contains(output, "Queries:         3") {
		t.Errorf("Unexpected status output:\n%s", output)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("VIDRANK_STORAGE__HISTORY_ENABLED", "false")

	if _, err := env.run(t, "", "recommend", "ai", "--catalog", env.csvPath); err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if stats := historyStats(t, env); stats.Total != 0 {
		t.Errorf("Expected no history when disabled, got %d", stats.Total)
	}
}

func TestHistoryClear(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "", "recommend", "ai", "--catalog", env.csvPath); err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	output, err := env.run(t, "n\n", "history", "clear")
	if err != nil {
		t.Fatalf("history clear failed: %v", err)
	}
	if !strings.Contains(output, "Cancelled") {
		t.Errorf("Expected cancellation, got %q", output)
	}
	if historyStats(t, env).Total != 1 {
		t.Error("Cancelled clear must keep history")
	}

	output, err = env.run(t, "y\n", "history", "clear")
	if err != nil {
		t.Fatalf("history clear failed: %v", err)
	}
	if !strings.Contains(output, "Deleted 1 history records") {
		t.Errorf("Unexpected output: %q", output)
	}

	output, err = env.run(t, "", "history", "clear", "--yes")
	if err != nil {
		t.Fatalf("history clear --yes failed: %v", err)
	}
	if !strings.Contains(output, "Deleted 0 history records") {
		t.Errorf("Unexpected output: %q", output)
	}
}

func TestHistoryCleanup(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "", "recommend", "ai", "--catalog", env.csvPath); err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	output, err := env.run(t, "", "history", "cleanup")
	if err != nil {
		t.Fatalf("history cleanup failed: %v", err)
	}
	if !strings.Contains(output, "Deleted 0 records") {
		t.Errorf("Fresh history should survive cleanup, got %q", output)
	}

	output, err = env.run(t, "", "history", "cleanup", "--retention", "0s")
	if err != nil {
		t.Fatalf("history cleanup failed: %v", err)
	}
	if !strings.Contains(output, "Retention is disabled") {
		t.Errorf("Unexpected output: %q", output)
	}
	if historyStats(t, env).Total != 1 {
		t.Error("Disabled retention must keep history")
	}
}

func TestHistoryStatusNegativeDays(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "", "history", "status", "--days", "-1"); err == nil {
		t.Error("Expected error for negative --days")
	}
}
