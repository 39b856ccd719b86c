package match

import "github.com/okian/snapdash/internal/domain/model"

// defaultAutoApproveScore is the minimum similarity score for skipping
// manual review. Independent from the matcher's distance threshold; the two
// are configured separately on purpose.
const defaultAutoApproveScore = 0.8

// Policy turns a match result into a submission status. Auto-approval is
// strict: a match below the score bar still goes to manual review, and this
// path never auto-rejects.
type Policy struct {
	autoApproveScore float64
}

// PolicyOption applies a configuration option to the Policy.
type PolicyOption func(*Policy)

// WithAutoApproveScore sets the minimum score for automatic approval.
func WithAutoApproveScore(score float64) PolicyOption {
	return func(p *Policy) {
		if score > 0 {
			p.autoApproveScore = score
		}
	}
}

// NewPolicy creates an acceptance policy with configuration options.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{autoApproveScore: defaultAutoApproveScore}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide maps a match result to the status the submission should take.
// Everything short of a confident match stays pending for an admin.
func (p *Policy) Decide(r Result) model.SubmissionStatus {
	if r.Matches && r.Score >= p.autoApproveScore {
		return model.StatusAutoApproved
	}
	return model.StatusPending
}
