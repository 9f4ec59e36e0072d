package invoice

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/fakturka/invoice-scan/internal/extraction"
	"github.com/fakturka/invoice-scan/internal/scanning"
)

const (
	// DefaultMaxAttempts is how many rotated re-scans a request may make
	DefaultMaxAttempts = 3
	// DefaultRotationDegrees is the clockwise turn applied before each re-scan
	DefaultRotationDegrees = 90
	// DefaultOCRTimeout bounds a single OCR call
	DefaultOCRTimeout = 30 * time.Second
)

// Phase is the state of an extraction request
type Phase int

const (
	// PhaseScanning means an OCR pass is pending or running
	PhaseScanning Phase = iota
	// PhaseDone is terminal
	PhaseDone
)

func (p Phase) String() string {
	if p == PhaseDone {
		return "done"
	}
	return "scanning"
}

// Outcome says why a request reached PhaseDone
type Outcome int

const (
	// OutcomePending is the outcome of a request that has not finished yet
	OutcomePending Outcome = iota
	// OutcomeResolved means the last pass did not ask for another rotation
	OutcomeResolved
	// OutcomeBudgetExhausted means the label kept appearing without a date
	// and the fallback rules picked the result
	OutcomeBudgetExhausted
	// OutcomeOCRFailed means the engine returned an error or timed out
	OutcomeOCRFailed
	// OutcomeCancelled means the caller went away
	OutcomeCancelled
	// OutcomeRejected means the input never reached the engine: no image, or
	// one that could not be decoded
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeBudgetExhausted:
		return "retry_budget_exhausted"
	case OutcomeOCRFailed:
		return "ocr_failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(b []byte) error {
	for _, v := range []Outcome{OutcomePending, OutcomeResolved, OutcomeBudgetExhausted, OutcomeOCRFailed, OutcomeCancelled, OutcomeRejected} {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// RetryState counts rotated re-scans for one request. Attempt never exceeds MaxAttempts.
type RetryState struct {
	Attempt     int `json:"attempt"`
	MaxAttempts int `json:"max_attempts"`
}

// CanRetry reports whether another rotation is allowed
func (r RetryState) CanRetry() bool {
	return r.Attempt < r.MaxAttempts
}

// State is a snapshot of a request's state machine
type State struct {
	Phase   Phase
	Retry   RetryState
	Outcome Outcome
}

// Extraction is the terminal value of a request that produced a result
type Extraction struct {
	Result   extraction.Result
	Attempts int
	Outcome  Outcome
	// Text is the normalized text of the pass the result was resolved from
	Text string
}

// ControllerConfig holds the retry tunables
type ControllerConfig struct {
	MaxAttempts     int
	RotationDegrees int
	OCRTimeout      time.Duration
}

// DefaultControllerConfig returns the retry settings the heuristics were tuned with
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxAttempts:     DefaultMaxAttempts,
		RotationDegrees: DefaultRotationDegrees,
		OCRTimeout:      DefaultOCRTimeout,
	}
}

// Validate checks the retry settings
func (c ControllerConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative, got %d", c.MaxAttempts)
	}
	if c.RotationDegrees%90 != 0 || c.RotationDegrees%360 == 0 {
		return fmt.Errorf("rotation must be a non-zero multiple of 90 degrees, got %d", c.RotationDegrees)
	}
	if c.OCRTimeout < 0 {
		return fmt.Errorf("ocr timeout must not be negative, got %s", c.OCRTimeout)
	}
	return nil
}

// Observer is told about every state the request enters
type Observer func(State)

// Controller drives OCR passes over an image, rotating it while the issuance
// label is visible but its date is not.
type Controller struct {
	recognizer scanning.Recognizer
	rotator    scanning.Rotator
	extractor  *extraction.Extractor
	cfg        ControllerConfig
}

// NewController creates a new Controller
func NewController(recognizer scanning.Recognizer, rotator scanning.Rotator, extractor *extraction.Extractor, cfg ControllerConfig) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Controller{
		recognizer: recognizer,
		rotator:    rotator,
		extractor:  extractor,
		cfg:        cfg,
	}, nil
}

// Extractor returns the extractor used for every pass
func (c *Controller) Extractor() *extraction.Extractor {
	return c.extractor
}

// request is the per-call state. It is never shared between calls.
type request struct {
	state     State
	image     image.Image
	last      *extraction.Evaluation
	err       error
	observers []Observer
}

func (r *request) enter(s State) {
	r.state = s
	for _, o := range r.observers {
		o(s)
	}
}

func (r *request) finish(outcome Outcome, err error) {
	r.err = err
	done := State{Phase: PhaseDone, Retry: r.state.Retry, Outcome: outcome}
	if outcome == OutcomeCancelled {
		// Observers see nothing once the caller has gone
		r.state = done
		return
	}
	r.enter(done)
}

// Run extracts the fields from img. Passes are strictly sequential. On OCR
// failure the error is an *OCRFailure; on cancellation it is the context's
// error and no result is produced.
func (c *Controller) Run(ctx context.Context, img image.Image, observers ...Observer) (*Extraction, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	r := &request{image: img, observers: observers}
	r.enter(State{Phase: PhaseScanning, Retry: RetryState{MaxAttempts: c.cfg.MaxAttempts}})

	for r.state.Phase == PhaseScanning {
		c.step(ctx, r)
	}

	switch r.state.Outcome {
	case OutcomeOCRFailed, OutcomeCancelled:
		return nil, r.err
	}
	return &Extraction{
		Result:   r.last.Result(),
		Attempts: r.state.Retry.Attempt,
		Outcome:  r.state.Outcome,
		Text:     r.last.Text,
	}, nil
}

// step performs one Scanning(n) transition
func (c *Controller) step(ctx context.Context, r *request) {
	text, err := c.recognize(ctx, r.image)
	// A pass that completes after cancellation is dropped
	if ctx.Err() != nil {
		r.finish(OutcomeCancelled, ctx.Err())
		return
	}
	if err != nil {
		r.finish(OutcomeOCRFailed, &OCRFailure{Attempt: r.state.Retry.Attempt, Cause: err})
		return
	}

	ev := c.extractor.Evaluate(text)
	// Each pass replaces the previous one
	r.last = ev

	if !ev.LabelSeenDateUnresolved() {
		r.finish(OutcomeResolved, nil)
		return
	}
	if !r.state.Retry.CanRetry() {
		r.finish(OutcomeBudgetExhausted, nil)
		return
	}

	rotated, err := c.rotator.Rotate(r.image, c.cfg.RotationDegrees)
	if err != nil {
		// Without a rotated copy there is nothing left to try
		r.finish(OutcomeBudgetExhausted, nil)
		return
	}
	r.image = rotated
	r.enter(State{
		Phase: PhaseScanning,
		Retry: RetryState{Attempt: r.state.Retry.Attempt + 1, MaxAttempts: r.state.Retry.MaxAttempts},
	})
}

type recognition struct {
	text string
	err  error
}

// recognize runs one OCR call under the per-attempt timeout. The engine runs
// on its own goroutine so a call that ignores its context cannot hold the
// request past the timeout; its late reply lands in a buffered channel and is
// discarded.
func (c *Controller) recognize(ctx context.Context, img image.Image) (string, error) {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.cfg.OCRTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.cfg.OCRTimeout)
	}
	defer cancel()

	done := make(chan recognition, 1)
	go func() {
		text, err := c.recognizer.Recognize(attemptCtx, img)
		done <- recognition{text: text, err: err}
	}()

	select {
	case rec := <-done:
		if rec.err != nil && ctx.Err() == nil && attemptCtx.Err() != nil {
			return "", fmt.Errorf("%w after %s", ErrOCRTimeout, c.cfg.OCRTimeout)
		}
		return rec.text, rec.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w after %s", ErrOCRTimeout, c.cfg.OCRTimeout)
	}
}
