/*
Package classifier provides the pre-trained performance classifiers the
prediction stage calls.

A classifier maps feature vectors (see catalog.Features) to performance
ordinals as defined by the performance codec. Two implementations exist:

  - Process: an external model process spoken to over line-delimited
    JSON-RPC 2.0 on stdio, guarded by a circuit breaker
  - Threshold: a built-in baseline that predicts the views-per-day bucket

No model fitting happens here. Training is somebody else's job.
*/
package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/khanglvm/vidrank/internal/catalog"
)

// Kinds accepted by New.
const (
	KindProcess   = "process"
	KindThreshold = "threshold"
)

// Classifier predicts one performance ordinal per feature vector, in order.
type Classifier interface {
	Predict(ctx context.Context, features []catalog.Features) ([]int, error)
	Close() error
}

// Config selects and configures a classifier.
type Config struct {
	Kind    string
	Command string
	Args    []string
	Env     map[string]string

	// Timeout bounds each request to the model process.
	Timeout time.Duration

	// BreakerFailures consecutive failures open the breaker for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Error wraps failures talking to a classifier: spawn errors, protocol
// errors, timeouts and an open breaker. It is always fatal to a build.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds the classifier named by cfg.Kind. An empty kind with no command
// falls back to the threshold baseline.
func New(cfg Config) (Classifier, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = KindThreshold
		if cfg.Command != "" {
			kind = KindProcess
		}
	}

	switch kind {
	case KindThreshold:
		return Threshold{}, nil
	case KindProcess:
		if cfg.Command == "" {
			return nil, fmt.Errorf("classifier kind %q requires a command", kind)
		}
		return NewProcess(cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier kind %q (use %s or %s)", kind, KindProcess, KindThreshold)
	}
}
