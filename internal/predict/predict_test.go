package predict

import (
	"context"
	"errors"
	"testing"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/performance"
)

// mockClassifier returns fixed ordinals and records batch sizes.
type mockClassifier struct {
	ordinals []int
	err      error
	batches  []int
	offset   int
}

func (m *mockClassifier) Predict(ctx context.Context, features []catalog.Features) ([]int, error) {
	m.batches = append(m.batches, len(features))
	if m.err != nil {
		return nil, m.err
	}
	out := m.ordinals[m.offset : m.offset+len(features)]
	m.offset += len(features)
	return out, nil
}

// shortClassifier drops the last prediction.
type shortClassifier struct{}

func (shortClassifier) Predict(ctx context.Context, features []catalog.Features) ([]int, error) {
	return make([]int, len(features)-1), nil
}

func newTestVideos() []catalog.Video {
	return []catalog.Video{
		{Title: "A", ViewsPerDay: 10},
		{Title: "B", ViewsPerDay: 2000},
		{Title: "C", ViewsPerDay: 9000},
	}
}

func TestAnnotate(t *testing.T) {
	videos := newTestVideos()
	mock := &mockClassifier{ordinals: []int{2, 0, 1}}

	got, err := Annotate(context.Background(), videos, mock, Options{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	want := []performance.Category{performance.High, performance.Low, performance.Medium}
	for i, v := range got {
		if v.Predicted != want[i] {
			t.Errorf("Record %d: expected %v, got %v", i, want[i], v.Predicted)
		}
		if v.Title != videos[i].Title {
			t.Errorf("Record %d: order changed, got %q", i, v.Title)
		}
	}

	for i, v := range videos {
		if v.Predicted != performance.Low {
			t.Errorf("Input record %d was mutated", i)
		}
	}
}

func TestAnnotate_Batches(t *testing.T) {
	videos := make([]catalog.Video, 7)
	mock := &mockClassifier{ordinals: make([]int, 7)}

	if _, err := Annotate(context.Background(), videos, mock, Options{BatchSize: 3}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	want := []int{3, 3, 1}
	if len(mock.batches) != len(want) {
		t.Fatalf("Expected %d batches, got %v", len(want), mock.batches)
	}
	for i := range want {
		if mock.batches[i] != want[i] {
			t.Errorf("Batch %d: expected %d, got %d", i, want[i], mock.batches[i])
		}
	}
}

func TestAnnotate_ClassifierError(t *testing.T) {
	boom := errors.New("model crashed")
	_, err := Annotate(context.Background(), newTestVideos(), &mockClassifier{err: boom}, Options{})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped classifier error, got %v", err)
	}
}

func TestAnnotate_CountMismatch(t *testing.T) {
	_, err := Annotate(context.Background(), newTestVideos(), shortClassifier{}, Options{})
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("Expected ErrCountMismatch, got %v", err)
	}
}

func TestAnnotate_UnknownOrdinal(t *testing.T) {
	mock := &mockClassifier{ordinals: []int{0, 3, 1}}
	_, err := Annotate(context.Background(), newTestVideos(), mock, Options{})
	if !errors.Is(err, performance.ErrUnknownOrdinal) {
		t.Errorf("Expected ErrUnknownOrdinal, got %v", err)
	}
}

func TestAnnotate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockClassifier{ordinals: []int{0, 0, 0}}
	_, err := Annotate(ctx, newTestVideos(), mock, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(mock.batches) != 0 {
		t.Error("Classifier should not be called after cancellation")
	}
}

func TestAnnotate_FeatureOrder(t *testing.T) {
	var seen catalog.Features
	c := classifierFunc(func(ctx context.Context, f []catalog.Features) ([]int, error) {
		seen = f[0]
		return []int{0}, nil
	})

	v := catalog.Video{Likes: 1, Comments: 2, DurationMinutes: 3, Engagement: 4, DaysSinceUpload: 5, ViewsPerDay: 6}
	if _, err := Annotate(context.Background(), []catalog.Video{v}, c, Options{}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if seen != (catalog.Features{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Unexpected feature vector: %v", seen)
	}
}

type classifierFunc func(ctx context.Context, f []catalog.Features) ([]int, error)

func (fn classifierFunc) Predict(ctx context.Context, f []catalog.Features) ([]int, error) {
	return fn(ctx, f)
}
