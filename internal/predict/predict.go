/*
Package predict runs the prediction stage: every catalog record is annotated
exactly once with a predicted performance category before the catalog is
published.

The stage is whole-or-nothing. A classifier failure, a prediction count that
does not match the input, or an ordinal outside the codec's domain fails the
stage and no annotated catalog is produced.
*/
package predict

import (
	"context"
	"errors"
	"fmt"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/performance"
)

// DefaultBatchSize is the number of feature vectors sent per classifier call.
const DefaultBatchSize = 512

// ErrCountMismatch means the classifier returned a different number of
// predictions than it was given feature vectors.
var ErrCountMismatch = errors.New("prediction count does not match input")

// Classifier is the pre-trained model boundary.
type Classifier interface {
	Predict(ctx context.Context, features []catalog.Features) ([]int, error)
}

// Options tunes the stage.
type Options struct {
	BatchSize int
}

// Annotate returns a copy of videos with Predicted set from the classifier,
// in the same order. The input slice is not modified.
func Annotate(ctx context.Context, videos []catalog.Video, c Classifier, opts Options) ([]catalog.Video, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	out := make([]catalog.Video, len(videos))
	copy(out, videos)

	features := make([]catalog.Features, len(videos))
	for i := range videos {
		features[i] = videos[i].Features()
	}

	for start := 0; start < len(features); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+size, len(features))
		ordinals, err := c.Predict(ctx, features[start:end])
		if err != nil {
			return nil, fmt.Errorf("prediction failed for records %d-%d: %w", start+1, end, err)
		}
		if len(ordinals) != end-start {
			return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, end-start, len(ordinals))
		}

		for i, ord := range ordinals {
			cat, err := performance.Decode(ord)
			if err != nil {
				pos := start + i
				return nil, fmt.Errorf("record %d (%q): %w", pos+1, out[pos].Title, err)
			}
			out[start+i].Predicted = cat
		}
	}

	log := logging.Component("predict")
	log.Debug().
		Int("records", len(out)).
		Int("batch_size", size).
		Msg("catalog annotated")

	return out, nil
}
