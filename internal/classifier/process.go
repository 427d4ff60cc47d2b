package classifier

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/metrics"
	"github.com/khanglvm/vidrank/internal/version"
)

// DefaultTimeout bounds a single request to the model process. Loading a
// model from disk on the first call can take a while.
const DefaultTimeout = 30 * time.Second

// Breaker defaults.
const (
	DefaultBreakerFailures = 3
	DefaultBreakerCooldown = 30 * time.Second
)

// ProtocolVersion is sent in the initialize request.
const ProtocolVersion = "1"

// ErrTimeout is returned when the model process does not answer in time.
var ErrTimeout = errors.New("timed out waiting for model response")

// Process is a Classifier backed by a long-lived child process. The child is
// spawned on first use, reused across calls and respawned after a failure.
// Calls are serialized; the protocol is strictly request/response.
type Process struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[[]int]

	mu    sync.Mutex
	child *child
}

// child is one running model process.
type child struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	// reqID is a small counter rather than a timestamp so ids stay exact in
	// JSON number implementations limited to 2^53.
	reqID  int64
	cancel context.CancelFunc
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type initializeResult struct {
	Model    string   `json:"model"`
	Features []string `json:"features"`
}

type predictParams struct {
	Features [][6]float64 `json:"features"`
}

type predictResult struct {
	Predictions []int `json:"predictions"`
}

// NewProcess returns a process classifier. Nothing is spawned until the
// first Predict.
func NewProcess(cfg Config) *Process {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = DefaultBreakerCooldown
	}

	log := logging.Component("classifier")
	p := &Process{cfg: cfg}
	p.breaker = gobreaker.NewCircuitBreaker[[]int](gobreaker.Settings{
		Name:        "classifier-process",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// A caller giving up says nothing about the model's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ClassifierBreakerState.Set(float64(to))
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("classifier breaker state changed")
		},
	})
	return p
}

// Predict implements Classifier.
func (p *Process) Predict(ctx context.Context, features []catalog.Features) ([]int, error) {
	start := time.Now()
	out, err := p.breaker.Execute(func() ([]int, error) {
		return p.predict(ctx, features)
	})
	metrics.RecordClassifierCall(KindProcess, time.Since(start), err)
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, &Error{Op: "predict", Err: err}
	}
	return out, nil
}

func (p *Process) predict(ctx context.Context, features []catalog.Features) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := p.getOrSpawn(ctx)
	if err != nil {
		return nil, err
	}

	params := predictParams{Features: make([][6]float64, len(features))}
	for i, f := range features {
		params.Features[i] = f
	}

	var result predictResult
	if err := c.call(ctx, "predict", params, &result, p.cfg.Timeout); err != nil {
		p.discard()
		return nil, &Error{Op: "predict", Err: err}
	}
	return result.Predictions, nil
}

// getOrSpawn must be called with p.mu held.
func (p *Process) getOrSpawn(ctx context.Context) (*child, error) {
	if p.child != nil {
		return p.child, nil
	}

	c, err := spawn(p.cfg)
	if err != nil {
		return nil, &Error{Op: "spawn", Err: err}
	}

	info, err := c.initialize(ctx, p.cfg.Timeout)
	if err != nil {
		c.kill()
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w (model process exited during startup; check that %q runs on its own)", err, p.cfg.Command)
		}
		return nil, &Error{Op: "initialize", Err: err}
	}
	if len(info.Features) > 0 && !sameFeatures(info.Features) {
		c.kill()
		return nil, &Error{
			Op:  "initialize",
			Err: fmt.Errorf("model expects features %v, have %v", info.Features, catalog.FeatureNames),
		}
	}

	log := logging.Component("classifier")
	log.Info().
		Str("command", p.cfg.Command).
		Str("model", info.Model).
		Msg("model process ready")

	p.child = c
	return c, nil
}

// discard kills the current child so the next call respawns. Must be called
// with p.mu held.
func (p *Process) discard() {
	if p.child != nil {
		p.child.kill()
		p.child = nil
	}
}

// Close shuts the model process down: stdin is closed first, the process
// gets two seconds to exit, then it is killed.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.child
	p.child = nil
	if c == nil {
		return nil
	}

	log := logging.Component("classifier")
	if err := c.stdin.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close model stdin")
	}

	done := make(chan error, 1)
	go func() {
		done <- c.cmd.Wait()
	}()

	select {
	case err := <-done:
		c.cancel()
		if err != nil && !killedBySignal(err) {
			return fmt.Errorf("model process: %w", err)
		}
	case <-time.After(2 * time.Second):
		log.Warn().Msg("model process did not exit gracefully, force killing")
		c.kill()
	}
	return nil
}

// killedBySignal reports whether err is the exit of a process that was sent
// SIGKILL, which is how kill and context cancellation stop the child.
func killedBySignal(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ProcessState == nil {
		return false
	}
	ws, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled() && ws.Signal() == syscall.SIGKILL
}

func spawn(cfg Config) (*child, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)

	cmd.Env = os.Environ()
	for key, value := range cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	// stderr must be drained or a chatty model blocks once the pipe buffer fills.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", cfg.Command, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go drainStderr(ctx, stderr)

	return &child{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		cancel: cancel,
	}, nil
}

// drainStderr forwards model stderr to the debug log until the pipe closes.
func drainStderr(ctx context.Context, r io.Reader) {
	log := logging.Component("classifier")
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			io.Copy(io.Discard, r)
			return
		default:
		}
		log.Debug().Str("stream", "stderr").Msg(sc.Text())
	}
}

func (c *child) initialize(ctx context.Context, timeout time.Duration) (initializeResult, error) {
	var info initializeResult
	err := c.call(ctx, "initialize", map[string]any{
		"protocolVersion": ProtocolVersion,
		"clientInfo": map[string]any{
			"name":    "vidrank",
			"version": version.Version,
		},
		"features": catalog.FeatureNames,
	}, &info, timeout)
	return info, err
}

// call sends one request and decodes the result into out.
func (c *child) call(ctx context.Context, method string, params, out any, timeout time.Duration) error {
	c.reqID++
	id := c.reqID

	reqBytes, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return err
	}
	reqBytes = append(reqBytes, '\n')

	if _, err := c.stdin.Write(reqBytes); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	type readResult struct {
		line []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		line, err := c.stdout.ReadBytes('\n')
		ch <- readResult{line, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("failed to read response: %w", r.err)
		}
		var resp rpcResponse
		if err := json.Unmarshal(r.line, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if resp.Error != nil {
			return fmt.Errorf("model error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		if resp.ID != id {
			return fmt.Errorf("response id %d does not match request id %d", resp.ID, id)
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("failed to parse %s result: %w", method, err)
			}
		}
		return nil

	case <-timer.C:
		return fmt.Errorf("%s: %w after %v", method, ErrTimeout, timeout)

	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *child) kill() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill()
		go c.cmd.Wait()
	}
}

func sameFeatures(names []string) bool {
	if len(names) != len(catalog.FeatureNames) {
		return false
	}
	for i, n := range names {
		if catalog.NormalizeHeader(n) != catalog.FeatureNames[i] {
			return false
		}
	}
	return true
}
