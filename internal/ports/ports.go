// Package ports assigns non-conflicting host ports to instances.
package ports

import (
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for port allocation.
var (
	ErrExhausted = errors.New("no free port in scan range")
	ErrReserved  = errors.New("port is outside the allowed range")
)

// Defaults for the scan range. Ports below 1024 are never handed out.
const (
	DefaultBase = 50080
	DefaultSpan = 1000
)

// ProbeFn reports whether a port is free to bind on the local host.
type ProbeFn func(port int) bool

// Allocator hands out host ports starting from Base over a bounded Span.
//
// Ports held by any registered instance are skipped, including instances that
// are merely stopped: a stopped instance keeps its port so restart is stable.
// A TCP listen probe additionally skips ports bound by foreign processes.
type Allocator struct {
	Base int
	Span int

	// Probe checks local availability before a port is handed out.
	// Nil skips the check (registry bookkeeping only).
	Probe ProbeFn
}

// NewAllocator creates an Allocator with the given scan range.
// Zero values fall back to DefaultBase/DefaultSpan.
func NewAllocator(base, span int) *Allocator {
	if base <= 0 {
		base = DefaultBase
	}
	if span <= 0 {
		span = DefaultSpan
	}
	return &Allocator{Base: base, Span: span, Probe: listenProbe}
}

// Allocate returns a free port.
//
// If preferred is non-zero and free it is used, otherwise the scan starts from
// Base and walks upward. taken holds ports already assigned in the registry.
// Returns ErrExhausted when the whole span is occupied.
func (a *Allocator) Allocate(taken map[int]bool, preferred int) (int, error) {
	if preferred != 0 {
		if preferred < 1024 {
			return 0, fmt.Errorf("%w: %d", ErrReserved, preferred)
		}
		if !taken[preferred] && a.free(preferred) {
			return preferred, nil
		}
		// Preferred port busy: fall through to the scan rather than failing,
		// matching the auto-assign behavior of an unspecified port.
	}

	for port := a.Base; port < a.Base+a.Span; port++ {
		if taken[port] {
			continue
		}
		if !a.free(port) {
			continue
		}
		return port, nil
	}

	return 0, fmt.Errorf("%w (%d-%d)", ErrExhausted, a.Base, a.Base+a.Span-1)
}

func (a *Allocator) free(port int) bool {
	if a.Probe == nil {
		return true
	}
	return a.Probe(port)
}

// listenProbe checks availability by briefly binding the port.
func listenProbe(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
