package council

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zen-systems/quorum/pkg/agent"
	"github.com/zen-systems/quorum/pkg/schema"
	"golang.org/x/sync/errgroup"
)

const defaultPerAgentTimeout = 120 * time.Second

// EventKind marks an agent invocation transition.
type EventKind string

const (
	EventStarted EventKind = "started"
	EventSettled EventKind = "settled"
)

// Event is an observation hook payload emitted as each agent invocation
// starts and settles. It is not part of the dispatch return contract.
type Event struct {
	Kind      EventKind
	AgentID   string
	Outcome   *Outcome // settled events only
	Timestamp time.Time
}

// EventSink receives per-agent progress events. It is called from the
// dispatching goroutines and must be safe for concurrent use.
type EventSink func(Event)

// Dispatcher invokes every agent concurrently and joins all outcomes. One
// agent's failure never cancels or blocks its siblings; the dispatch returns
// only after every agent has settled.
type Dispatcher struct {
	timeout     time.Duration
	maxInFlight int
	sink        EventSink
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPerAgentTimeout bounds each agent invocation. A hung call settles as a
// timeout failure; the underlying call is abandoned best-effort.
func WithPerAgentTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithMaxInFlight caps the number of concurrently running agent calls.
// Zero means no cap.
func WithMaxInFlight(n int) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.maxInFlight = n
	}
}

// WithEventSink registers a progress event sink.
func WithEventSink(sink EventSink) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.sink = sink
	}
}

// NewDispatcher creates a Dispatcher with the default per-agent timeout.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{timeout: defaultPerAgentTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchAll runs the query through every agent in parallel and returns one
// settled Outcome per agent identifier. It is a full join barrier: there is
// no first-success short-circuit, and per-agent errors are recorded, never
// propagated. Cancelling ctx is the external whole-request cancellation
// signal; it cancels all in-flight agent calls.
//
// An empty agent set returns ErrNoAgents before any call is made.
func (d *Dispatcher) DispatchAll(ctx context.Context, agents []agent.Agent, query string, domain schema.Domain, maxTokens int) (map[string]Outcome, error) {
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}

	seen := make(map[string]struct{}, len(agents))
	for _, ag := range agents {
		if _, dup := seen[ag.ID()]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", ag.ID())
		}
		seen[ag.ID()] = struct{}{}
	}

	var (
		mu       sync.Mutex
		outcomes = make(map[string]Outcome, len(agents))
	)

	// Plain errgroup, not WithContext: the group exists only for the join
	// barrier and the in-flight cap. Every task returns nil so no failure
	// cancels a sibling.
	g := new(errgroup.Group)
	if d.maxInFlight > 0 {
		g.SetLimit(d.maxInFlight)
	}

	for _, ag := range agents {
		g.Go(func() error {
			d.emit(Event{Kind: EventStarted, AgentID: ag.ID(), Timestamp: time.Now().UTC()})

			outcome := d.invoke(ctx, ag, query, domain, maxTokens)

			mu.Lock()
			// Each agent id is unique and each goroutine writes its own
			// slot once, which is what keeps the join barrier sound.
			outcomes[outcome.AgentID] = outcome
			mu.Unlock()

			if outcome.Succeeded() {
				log.Debug().Str("agent", outcome.AgentID).Msg("agent settled")
			} else {
				log.Warn().
					Str("agent", outcome.AgentID).
					Str("kind", string(outcome.Failure.Kind)).
					Str("reason", outcome.Failure.Message).
					Msg("agent failed")
			}
			d.emit(Event{Kind: EventSettled, AgentID: outcome.AgentID, Outcome: &outcome, Timestamp: time.Now().UTC()})
			return nil
		})
	}

	_ = g.Wait()
	return outcomes, nil
}

// invoke runs a single agent call under the per-agent timeout and converts
// any error, panic, or hang into a settled Outcome.
func (d *Dispatcher) invoke(ctx context.Context, ag agent.Agent, query string, domain schema.Domain, maxTokens int) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type callResult struct {
		resp *schema.Response
		err  error
	}
	done := make(chan callResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		resp, err := ag.Research(callCtx, query, domain, maxTokens)
		done <- callResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			f := classifyFailure(res.err)
			return Outcome{AgentID: ag.ID(), Failure: &f}
		}
		if res.resp == nil {
			return Outcome{AgentID: ag.ID(), Failure: &Failure{
				Kind:    FailureInvalidResponse,
				Message: "agent returned nil response",
			}}
		}
		return Outcome{AgentID: ag.ID(), Response: res.resp}
	case <-callCtx.Done():
		// The agent call is abandoned; there is no guarantee upstream work
		// stops, only that we stop waiting for it.
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Outcome{AgentID: ag.ID(), Failure: &Failure{
				Kind:    FailureTimeout,
				Message: fmt.Sprintf("no response within %s", d.timeout),
			}}
		}
		return Outcome{AgentID: ag.ID(), Failure: &Failure{
			Kind:    FailureUnknown,
			Message: "dispatch cancelled",
		}}
	}
}

func (d *Dispatcher) emit(ev Event) {
	if d.sink != nil {
		d.sink(ev)
	}
}
