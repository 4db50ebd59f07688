package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Policy decides what a moderator failure means for the request.
type Policy string

const (
	// PolicyAllow treats a failed check as clean text.
	PolicyAllow Policy = "allow"
	// PolicyBlock treats a failed check as offensive text.
	PolicyBlock Policy = "block"
)

// ParsePolicy validates a configured policy name. Empty means PolicyAllow.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAllow:
		return PolicyAllow, nil
	case PolicyBlock:
		return PolicyBlock, nil
	default:
		return "", fmt.Errorf("unknown moderation policy %q (want allow or block)", s)
	}
}

// Service is the content safety pre-check.
type Service struct {
	moderator Moderator
	policy    Policy
	logger    *zap.Logger
}

// New creates a Service.
func New(moderator Moderator, policy Policy, logger *zap.Logger) *Service {
	if policy == "" {
		policy = PolicyAllow
	}
	return &Service{moderator: moderator, policy: policy, logger: logger}
}

// Policy returns the configured failure policy.
func (s *Service) Policy() Policy { return s.policy }

// IsOffensive reports whether text should be refused.
// Moderator errors never surface; the policy decides the answer.
func (s *Service) IsOffensive(ctx context.Context, text string) bool {
	flagged, err := s.moderator.Flagged(ctx, text)
	if err != nil {
		s.logger.Warn("Moderation check failed",
			zap.String("policy", string(s.policy)),
			zap.Error(err),
		)
		return s.policy == PolicyBlock
	}
	return flagged
}
