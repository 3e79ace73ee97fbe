// Package threshold decides whether a new Out request needs confirmation.
package threshold

// defaultDailyLimit is the trip count at which confirmation kicks in.
const defaultDailyLimit = 2

// Decision is the outcome of evaluating a count against the gate.
type Decision struct {
	Allow                bool
	RequiresConfirmation bool
}

// Gate enforces the per-operating-day usage threshold.
type Gate struct {
	dailyLimit int
}

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithDailyLimit sets the trip count at which confirmation is required.
func WithDailyLimit(limit int) Option {
	return func(g *Gate) {
		if limit > 0 {
			g.dailyLimit = limit
		}
	}
}

// NewGate creates a threshold gate with configuration options.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		dailyLimit: defaultDailyLimit,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Limit returns the configured daily trip limit.
func (g *Gate) Limit() int {
	return g.dailyLimit
}

// Evaluate decides whether an Out request may proceed given the member's
// trip count so far today. Below the limit the request is always allowed.
// At or past the limit it is held for confirmation unless forceOverride
// is set. Back requests are never evaluated here.
func (g *Gate) Evaluate(countBefore int, forceOverride bool) Decision {
	if countBefore < g.dailyLimit {
		return Decision{Allow: true}
	}
	if forceOverride {
		return Decision{Allow: true}
	}
	return Decision{RequiresConfirmation: true}
}
