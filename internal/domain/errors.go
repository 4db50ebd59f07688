package domain

import "errors"

var (
	// ErrNoSuitableBook signals that no catalog entry cleared the similarity gate.
	ErrNoSuitableBook = errors.New("no suitable book found")
	// ErrContentModerated signals input flagged by the moderation service.
	ErrContentModerated = errors.New("content moderated")
	// ErrUpstream signals a failure of an external model API.
	ErrUpstream = errors.New("upstream model error")
	// ErrInvalidCatalog signals a catalog file that cannot be decoded.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInvalidRequest signals a malformed client request.
	ErrInvalidRequest = errors.New("invalid request")
)
