package leaderboard

import "github.com/okian/scoreline/internal/domain/scoring"

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPolicy selects the point system.
func WithPolicy(p scoring.Policy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.policy = p
		}
	}
}

// WithProfilePolicy selects how users without a profile are treated.
func WithProfilePolicy(p ProfilePolicy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.profiles = p
		}
	}
}
