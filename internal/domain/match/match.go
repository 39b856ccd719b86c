// Package match defines the contract for verifying photo submissions
// against a level's reference images.
package match

import (
	"context"

	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/pkg/logger"
)

// Default matching configuration constants.
const (
	// hashLength is the positional length of a full perceptual hash.
	hashLength = 64

	defaultDistanceThreshold = 8
	defaultFeatureThreshold  = 0.7

	// stubFeatureScore is what the placeholder feature matcher always
	// returns. Descriptor matching is not implemented; the constant keeps
	// the feature path observable without pretending to compare anything.
	stubFeatureScore = 0.5
)

// Match sources, reported on every result.
const (
	SourceMain        = "main"
	SourceAlternative = "alternative"
	SourceFeatures    = "features"
)

// Result is the outcome of one verification call. It is consumed by the
// caller immediately and never persisted on its own.
type Result struct {
	Matches bool
	Score   float64
	Source  string
}

// Input abstracts the submission fields needed for matching.
type Input struct {
	PHash       string
	Descriptors []byte
}

// Matcher decides whether a submitted photo matches a level's reference
// scene. Implementations must be pure and safe for concurrent use.
type Matcher interface {
	Match(ctx context.Context, level model.Level, in Input) Result
}

// FeatureMatcher compares feature descriptor blobs and returns a score in
// [0,1]. The default implementation is a placeholder; see StubFeatureMatcher.
type FeatureMatcher interface {
	Compare(ctx context.Context, reference, submitted []byte) float64
}

// StubFeatureMatcher is the placeholder descriptor comparison. It returns a
// constant score regardless of input. Swap in a real implementation via
// WithFeatureMatcher once descriptor matching exists.
type StubFeatureMatcher struct {
	logger logger.Logger
}

// Compare always returns the fixed placeholder score.
func (m *StubFeatureMatcher) Compare(ctx context.Context, _, _ []byte) float64 {
	if m.logger != nil {
		m.logger.Warn(ctx, "descriptor matching not implemented; returning placeholder score",
			logger.Float64("score", stubFeatureScore),
		)
	}
	return stubFeatureScore
}

// Distance counts differing positions between two hash strings, iterating
// over the shorter of the two. This is a character-wise mismatch count, not
// a bit-level Hamming distance on decoded hash bits; the accept/reject
// outcomes depend on this exact semantic. An empty submitted hash yields the
// maximum distance so it can never match.
func Distance(submitted, reference string) int {
	if submitted == "" {
		return hashLength
	}
	n := len(submitted)
	if len(reference) < n {
		n = len(reference)
	}
	d := 0
	for i := 0; i < n; i++ {
		if submitted[i] != reference[i] {
			d++
		}
	}
	return d
}

// InMemoryMatcher implements Matcher using perceptual-hash distance with an
// optional feature-descriptor fallback.
type InMemoryMatcher struct {
	distanceThreshold int
	featureThreshold  float64
	features          FeatureMatcher
	logger            logger.Logger
}

// NewInMemoryMatcher creates a matcher with configuration options.
func NewInMemoryMatcher(opts ...Option) *InMemoryMatcher {
	m := &InMemoryMatcher{
		distanceThreshold: defaultDistanceThreshold,
		featureThreshold:  defaultFeatureThreshold,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.features == nil {
		m.features = &StubFeatureMatcher{logger: m.logger}
	}

	return m
}

// Match runs the verification cascade: primary hash, then each alternative
// in order (first within threshold wins), then the feature path when both
// sides carry descriptors. Malformed input degrades to a non-match; the
// submission flow routes uncertain photos to manual review instead of
// erroring.
func (m *InMemoryMatcher) Match(ctx context.Context, level model.Level, in Input) Result {
	if d := Distance(in.PHash, level.PHash); d <= m.distanceThreshold {
		return Result{Matches: true, Score: score(d), Source: SourceMain}
	}

	for _, alt := range level.AltPHashes {
		if d := Distance(in.PHash, alt); d <= m.distanceThreshold {
			return Result{Matches: true, Score: score(d), Source: SourceAlternative}
		}
	}

	if len(in.Descriptors) > 0 && len(level.Descriptors) > 0 {
		if s := m.features.Compare(ctx, level.Descriptors, in.Descriptors); s > m.featureThreshold {
			return Result{Matches: true, Score: s, Source: SourceFeatures}
		}
	}

	return Result{}
}

// score maps a hash distance to a similarity score in [0,1].
func score(distance int) float64 {
	return 1 - float64(distance)/float64(hashLength)
}
