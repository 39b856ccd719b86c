// Package match defines the contract for verifying photo submissions.
package match

import "github.com/okian/snapdash/pkg/logger"

// Option applies a configuration option to the InMemoryMatcher.
type Option func(*InMemoryMatcher)

// WithDistanceThreshold sets the maximum hash distance that still counts as
// a match against the primary or an alternative reference hash.
func WithDistanceThreshold(threshold int) Option {
	return func(m *InMemoryMatcher) {
		if threshold > 0 {
			m.distanceThreshold = threshold
		}
	}
}

// WithFeatureThreshold sets the minimum feature score for the descriptor
// fallback path.
func WithFeatureThreshold(threshold float64) Option {
	return func(m *InMemoryMatcher) {
		if threshold > 0 {
			m.featureThreshold = threshold
		}
	}
}

// WithFeatureMatcher replaces the placeholder descriptor comparison.
func WithFeatureMatcher(fm FeatureMatcher) Option {
	return func(m *InMemoryMatcher) {
		if fm != nil {
			m.features = fm
		}
	}
}

// WithLogger sets a logger for the matcher and its feature stub.
func WithLogger(l logger.Logger) Option {
	return func(m *InMemoryMatcher) {
		if l != nil {
			m.logger = l
		}
	}
}
