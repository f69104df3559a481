package fetch

import (
	"fmt"
	"strings"
)

// Attempt records why one strategy failed.
type Attempt struct {
	Strategy string
	Reason   string
}

// Error is the aggregated failure returned when every strategy in the
// chain has been exhausted. It always names each attempted strategy so a
// frame that will not load can be diagnosed from the log alone.
type Error struct {
	Locator  string
	Attempts []Attempt
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frame unavailable: %s", e.Locator)
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, "; %s: %s", a.Strategy, a.Reason)
	}
	return sb.String()
}
