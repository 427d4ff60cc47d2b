package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/recommend"
)

func TestNewRecommendCmd(t *testing.T) {
	cmd := NewRecommendCmd(&globalOptions{})

	if !strings.HasPrefix(cmd.Use, "recommend") {
		t.Errorf("Expected Use to start with 'recommend', got %q", cmd.Use)
	}
	for _, flag := range []string{"json", "catalog", "source", "invalid-rows", "classifier", "model-command"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Flag %q not registered", flag)
		}
	}
	if cmd.RunE == nil {
		t.Error("Command RunE function not set")
	}
}

func TestRecommendCommand(t *testing.T) {
	env := newTestEnv(t)

	output, err := env.run(t, "", "recommend", "ai", "--catalog", env.csvPath)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and 2 rows, got:\n%s", output)
	}
	if !strings.HasPrefix(lines[1], "Top") || !strings.Contains(lines[1], "AI for Cats") || !strings.Contains(lines[1], "100.00") {
		t.Errorf("Unexpected top row: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2") || !strings.Contains(lines[2], "Intro to AI") {
		t.Errorf("Unexpected second row: %q", lines[2])
	}
}

func TestRecommendCommandJSON(t *testing.T) {
	env := newTestEnv(t)

	output, err := env.run(t, "", "recommend", "AI", "--catalog", env.csvPath, "--json")
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	var got struct {
		Keyword string `json:"keyword"`
		Found   bool   `json:"found"`
		Top     struct {
			Title string  `json:"title"`
			Score float64 `json:"score"`
			Label string  `json:"label"`
		} `json:"top"`
		Videos []struct {
			Title string `json:"title"`
			Rank  int    `json:"rank"`
		} `json:"videos"`
	}
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, output)
	}

	if got.Keyword != "AI" || !got.Found {
		t.Errorf("Unexpected result header: %+v", got)
	}
	if got.Top.Title != "AI for Cats" || got.Top.Score != 100 || got.Top.Label != "Top" {
		t.Errorf("Unexpected top: %+v", got.Top)
	}
	if len(got.Videos) != 1 || got.Videos[0].Title != "Intro to AI" || got.Videos[0].Rank != 2 {
		t.Errorf("Unexpected ranked videos: %+v", got.Videos)
	}
}

func TestRecommendCommandNoMatch(t *testing.T) {
	env := newTestEnv(t)

	output, err := env.run(t, "", "recommend", "quantum", "--catalog", env.csvPath)
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if strings.TrimSpace(output) != recommend.EmptyMessage {
		t.Errorf("Expected %q, got %q", recommend.EmptyMessage, output)
	}
}

func TestRecommendCommandErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no keyword", []string{"recommend", "--catalog", env.csvPath}},
		{"two keywords", []string{"recommend", "a", "b", "--catalog", env.csvPath}},
		{"no catalog path", []string{"recommend", "ai"}},
		{"missing catalog file", []string{"recommend", "ai", "--catalog", env.dir + "/nope.csv"}},
		{"bad source", []string{"recommend", "ai", "--source", "postgres"}},
		{"bad classifier", []string{"recommend", "ai", "--catalog", env.csvPath, "--classifier", "neural"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(t, "", tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestPrintRecommendationsEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := printRecommendations(buf, recommend.Result{Keyword: "x"}); err != nil {
		t.Fatalf("printRecommendations failed: %v", err)
	}
	if !strings.Contains(buf.String(), recommend.EmptyMessage) {
		t.Errorf("Expected empty message, got %q", buf.String())
	}
}
