package sink

import "context"

// Sink is a tabular destination with clear-then-overwrite semantics: a
// successful Write leaves the destination holding exactly the header and
// rows given, nothing else. A failed write after the clear can leave the
// destination empty; callers accept that.
type Sink interface {
	// HasDestination reports whether the named destination exists.
	// Orchestration skips absent destinations with a warning instead of
	// failing the run.
	HasDestination(ctx context.Context, name string) (bool, error)
	Write(ctx context.Context, name string, header []string, rows [][]string) error
}
