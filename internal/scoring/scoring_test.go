package scoring

import (
	"testing"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/performance"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		video    catalog.Video
		maxViews int64
		maxLikes int64
		want     float64
	}{
		{
			name:     "single high record is its own maximum",
			video:    catalog.Video{Predicted: performance.High, Views: 10000, Likes: 500},
			maxViews: 10000,
			maxLikes: 500,
			want:     100.00,
		},
		{
			name:     "half of both maxima",
			video:    catalog.Video{Predicted: performance.High, Views: 10000, Likes: 500},
			maxViews: 20000,
			maxLikes: 1000,
			want:     85.00,
		},
		{
			name:     "medium rounds to two decimals",
			video:    catalog.Video{Predicted: performance.Medium, Views: 3000, Likes: 100},
			maxViews: 3000,
			maxLikes: 200,
			want:     69.17,
		},
		{
			name:     "zero maxima",
			video:    catalog.Video{Predicted: performance.Medium},
			maxViews: 0,
			maxLikes: 0,
			want:     46.67,
		},
		{
			name:     "floor",
			video:    catalog.Video{Predicted: performance.Low},
			maxViews: 50,
			maxLikes: 50,
			want:     23.33,
		},
		{
			name:     "half-cent total rounds down",
			video:    catalog.Video{Predicted: performance.High, Views: 0, Likes: 3},
			maxViews: 1,
			maxLikes: 8,
			want:     75.62,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.video, tt.maxViews, tt.maxLikes); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreIdempotent(t *testing.T) {
	v := catalog.Video{Predicted: performance.Medium, Views: 1234, Likes: 56}
	first := Score(v, 99999, 777)
	for i := 0; i < 10; i++ {
		if got := Score(v, 99999, 777); got != first {
			t.Fatalf("Score changed between calls: %v then %v", first, got)
		}
	}
}

func TestScoreRange(t *testing.T) {
	for _, p := range performance.All {
		for _, views := range []int64{0, 1, 500, 1000} {
			for _, likes := range []int64{0, 3, 10} {
				v := catalog.Video{Predicted: p, Views: views, Likes: likes}
				s := Score(v, 1000, 10)
				if s < Floor || s > 100 {
					t.Errorf("Score(%v, %d, %d) = %v out of range", p, views, likes, s)
				}
			}
		}
	}
}

func TestExplain(t *testing.T) {
	b := Explain(catalog.Video{Predicted: performance.High, Views: 10000, Likes: 500}, 20000, 1000)
	if b.Performance != 1 || b.Views != 0.5 || b.Likes != 0.5 {
		t.Errorf("Unexpected breakdown: %+v", b)
	}
	if b.Total != 85 {
		t.Errorf("Expected total 85, got %v", b.Total)
	}
}

func TestScoreIn(t *testing.T) {
	store, err := catalog.NewStore([]catalog.Video{
		{Title: "a", Predicted: performance.High, Views: 10000, Likes: 500},
		{Title: "b", Predicted: performance.Low, Views: 20000, Likes: 1000},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if got := ScoreIn(store, store.At(0)); got != 85 {
		t.Errorf("ScoreIn() = %v, want 85", got)
	}
}

func TestRound2(t *testing.T) {
	tests := map[float64]float64{
		84.16666: 84.17,
		46.66666: 46.67,
		85.0:     85,
		0.004:    0,
		0.125:    0.12,
		0.375:    0.38,
		75.625:   75.62,
	}
	for in, want := range tests {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func BenchmarkScore(b *testing.B) {
	v := catalog.Video{Predicted: performance.Medium, Views: 3000, Likes: 100}
	for i := 0; i < b.N; i++ {
		Score(v, 3000, 200)
	}
}
