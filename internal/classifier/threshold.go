package classifier

import (
	"context"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/metrics"
	"github.com/khanglvm/vidrank/internal/performance"
)

// Threshold predicts the bucket of the views-per-day feature. It needs no
// model and agrees with the loader's recomputed performance labels.
type Threshold struct{}

// Predict implements Classifier.
func (Threshold) Predict(ctx context.Context, features []catalog.Features) ([]int, error) {
	start := time.Now()
	out := make([]int, len(features))
	for i, f := range features {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				metrics.RecordClassifierCall(KindThreshold, time.Since(start), err)
				return nil, err
			}
		}
		out[i] = performance.Encode(performance.Bucket(f[5]))
	}
	metrics.RecordClassifierCall(KindThreshold, time.Since(start), nil)
	return out, nil
}

// Close implements Classifier.
func (Threshold) Close() error { return nil }
