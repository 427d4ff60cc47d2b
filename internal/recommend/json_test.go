package recommend

import (
	"encoding/json"
	"testing"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/performance"
)

func TestResultJSON_Found(t *testing.T) {
	engine := newTestEngine(t, []catalog.Video{
		{Title: "AI basics", Category: "Education", Views: 10000, Likes: 500, Predicted: performance.High, Performance: performance.High},
		{Title: "AI art", Category: "Art", Views: 100, Likes: 5, Predicted: performance.Low, Performance: performance.Low},
	})

	res, err := engine.Recommend("ai")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got struct {
		Keyword string           `json:"keyword"`
		Found   bool             `json:"found"`
		Top     map[string]any   `json:"top"`
		Videos  []map[string]any `json:"videos"`
		Message *string          `json:"message"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v\n%s", err, data)
	}

	if got.Keyword != "ai" || !got.Found || got.Message != nil {
		t.Errorf("Unexpected envelope: %s", data)
	}
	if got.Top["title"] != "AI basics" || got.Top["label"] != "Top" || got.Top["score"] != 100.0 {
		t.Errorf("Unexpected top entry: %v", got.Top)
	}
	if got.Top["predicted_performance"] != "High" {
		t.Errorf("Expected category label in JSON, got %v", got.Top["predicted_performance"])
	}
	if _, ok := got.Top["rank"]; ok {
		t.Error("Top entry must not carry a rank")
	}
	if len(got.Videos) != 1 || got.Videos[0]["rank"] != 2.0 || got.Videos[0]["label"] != "2" {
		t.Errorf("Unexpected ranked entries: %v", got.Videos)
	}
	if _, ok := got.Videos[0]["score"]; ok {
		t.Error("Ranked entries must not carry a score")
	}
}

func TestResultJSON_Empty(t *testing.T) {
	data, err := json.Marshal(Result{Keyword: "quantum"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"keyword":"quantum","found":false,"message":"No videos found for the keyword."}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}
