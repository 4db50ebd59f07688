package moderation

import "context"

// Moderator asks an external model whether text violates content policy.
type Moderator interface {
	Flagged(ctx context.Context, text string) (bool, error)
}
