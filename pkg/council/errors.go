package council

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoAgents is returned when a dispatch is attempted with zero configured
// agents. It is a configuration error, distinct from every agent failing.
var ErrNoAgents = errors.New("council has no agents configured")

// AllFailedError is returned when every dispatched agent settled with a
// failure. It enumerates each agent's failure so callers can diagnose which
// providers are unreachable.
type AllFailedError struct {
	Failures map[string]Failure
}

func (e *AllFailedError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		f := e.Failures[id]
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", id, f.Message, f.Kind))
	}
	return fmt.Sprintf("all %d agents failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// SynthesizerError wraps an outright synthesizer call failure. The council
// recovers from it by falling back to heuristic aggregation.
type SynthesizerError struct {
	Err error
}

func (e *SynthesizerError) Error() string {
	return fmt.Sprintf("synthesizer call failed: %v", e.Err)
}

func (e *SynthesizerError) Unwrap() error {
	return e.Err
}
