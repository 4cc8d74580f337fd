package engine

import "errors"

var (
	// ErrCatalogMiss means no template matches the subject, skill area and
	// the learner's current difficulty level.
	ErrCatalogMiss = errors.New("no question template matches the request")

	ErrUnknownSession  = errors.New("unknown session")
	ErrSessionExists   = errors.New("session already exists")
	ErrUnknownQuestion = errors.New("question was not served in this session or is already answered")
)
