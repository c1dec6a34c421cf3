package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Phase is the submission state of an Orchestrator.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome reports what Dispatch did with an event.
type Outcome int

const (
	// OutcomeNone means the event changed local state only.
	OutcomeNone Outcome = iota
	// OutcomeRejected means a submission was refused before any request.
	OutcomeRejected
	// OutcomeSucceeded means an answer was appended to the conversation.
	OutcomeSucceeded
	// OutcomeFailed means the request failed and the error banner is set.
	OutcomeFailed
	// OutcomeDiscarded means the conversation was reset while the request
	// was in flight, so its result was dropped.
	OutcomeDiscarded
)

// View is notified after every finished submission so it can bring the
// newest content into view.
type View interface {
	ScrollToBottom()
}

// Orchestrator drives one conversation: it is the only writer of its Store
// and allows at most one request in flight. It is safe for concurrent use.
type Orchestrator struct {
	store    *Store
	pipeline Pipeline
	view     View
	logger   *slog.Logger
	timeout  time.Duration

	mu    sync.Mutex
	phase Phase
	input string
	err   string
	epoch uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithView registers the view notified after each submission.
func WithView(v View) Option {
	return func(o *Orchestrator) { o.view = v }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTimeout bounds each request. Zero, the default, waits until the
// pipeline answers or the caller's context ends.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// NewOrchestrator returns an idle Orchestrator writing to store.
func NewOrchestrator(store *Store, pipeline Pipeline, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		pipeline: pipeline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dispatch applies one input event. Submissions block until the pipeline
// answers; callers that must stay responsive run Dispatch in a goroutine.
func (o *Orchestrator) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	switch e := ev.(type) {
	case TextChanged:
		o.mu.Lock()
		o.input = e.Text
		o.mu.Unlock()
		return OutcomeNone, nil

	case KeyPressed:
		if e.Key != KeyEnter {
			return OutcomeNone, nil
		}
		o.mu.Lock()
		empty := o.input == ""
		o.mu.Unlock()
		if empty {
			return OutcomeNone, nil
		}
		return o.Submit(ctx)

	case Submitted:
		return o.Submit(ctx)

	case ResetRequested:
		o.Reset()
		return OutcomeNone, nil

	case ErrorDismissed:
		o.mu.Lock()
		o.err = ""
		o.mu.Unlock()
		return OutcomeNone, nil

	default:
		return OutcomeNone, fmt.Errorf("unknown event %T", ev)
	}
}

// Submit sends the input buffer to the pipeline and records the answer.
//
// The user message is appended before the request is made. On success an
// assistant message and one history entry follow it. On failure nothing else
// is appended and Err reports the failure; the returned error is a
// *PipelineError or a *TransportError.
func (o *Orchestrator) Submit(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	if o.phase == PhaseSubmitting {
		o.mu.Unlock()
		return OutcomeRejected, ErrSubmissionInFlight
	}
	question := strings.TrimSpace(o.input)
	if question == "" {
		o.mu.Unlock()
		return OutcomeRejected, ErrEmptyQuestion
	}

	o.store.Append(Message{Type: UserMessage, Text: question})
	o.input = ""
	o.err = ""
	o.phase = PhaseSubmitting
	req := Request{
		Question: NormalizeQuestion(question),
		History:  o.store.History(),
	}
	epoch := o.epoch
	o.mu.Unlock()

	o.logger.Debug("submitting question", "question_len", len(req.Question), "history_len", len(req.History))

	start := time.Now()
	res, askErr := o.ask(ctx, req)

	o.mu.Lock()
	outcome, err := o.applyLocked(epoch, question, res, askErr)
	o.phase = PhaseIdle
	o.mu.Unlock()

	o.logger.Debug("submission finished", "outcome", outcome, "duration_ms", time.Since(start).Milliseconds())

	if o.view != nil {
		o.view.ScrollToBottom()
	}
	return outcome, err
}

func (o *Orchestrator) ask(ctx context.Context, req Request) (Result, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.pipeline.Ask(ctx, req)
}

func (o *Orchestrator) applyLocked(epoch uint64, question string, res Result, askErr error) (Outcome, error) {
	if epoch != o.epoch {
		o.logger.Info("dropping answer for a conversation that was reset")
		return OutcomeDiscarded, nil
	}

	if askErr != nil {
		o.logger.Warn("chat request failed", "error", askErr)
		o.err = TransportErrorMessage
		return OutcomeFailed, &TransportError{Err: askErr}
	}

	switch r := res.(type) {
	case Success:
		o.store.Append(Message{
			Type:            APIMessage,
			Text:            r.Text,
			SourceDocuments: DedupeSources(r.Sources),
		})
		o.store.AppendHistory(question, r.Text)
		o.err = ""
		return OutcomeSucceeded, nil
	case Failure:
		o.logger.Warn("pipeline reported an error", "error", r.Message)
		o.err = r.Message
		return OutcomeFailed, &PipelineError{Message: r.Message}
	default:
		o.err = TransportErrorMessage
		return OutcomeFailed, &TransportError{Err: fmt.Errorf("unexpected result %T", res)}
	}
}

// Reset restores the seeded conversation and clears the error banner. An
// answer still in flight is dropped when it arrives.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.Reset()
	o.err = ""
	o.epoch++
}

// Phase reports whether a submission is in flight.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Input returns the current input buffer.
func (o *Orchestrator) Input() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.input
}

// Err returns the message of the current error banner, or "".
func (o *Orchestrator) Err() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// State returns a snapshot of the conversation.
func (o *Orchestrator) State() ConversationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Snapshot()
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeQuestion trims q and turns each line break into a single space.
func NormalizeQuestion(q string) string {
	return lineBreaks.Replace(strings.TrimSpace(q))
}
