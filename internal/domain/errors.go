package domain

import "errors"

// Error taxonomy for the engine. Components wrap these with fmt.Errorf
// ("pkg.Func: ...: %w") so callers can branch with errors.Is while logs
// keep the full chain.
var (
	// ErrConfiguration: missing or invalid tick parameters or strategy
	// config. Aborts the tick before any state mutation.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDataUnavailable: no quote/indicator at the requested timestamp.
	// Recovered locally — the symbol is skipped for that actor this tick.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrUpstreamFetch: the live data source failed. Recovered per symbol.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrStateInvariant: a state rule that is prevented by construction
	// (oversell, out-of-order snapshot) would have been violated. Fatal —
	// never silently corrected.
	ErrStateInvariant = errors.New("state invariant violated")

	// ErrPersistence: the durable store was unreachable. The whole tick
	// fails visibly; nothing is partially committed.
	ErrPersistence = errors.New("persistence failed")

	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session already completed")
)
