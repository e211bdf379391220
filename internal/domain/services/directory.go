package services

import "context"

// UserDirectory resolves email addresses to subject ids.
type UserDirectory interface {
	// LookupUserIDByEmail returns the id of the single account with this email.
	// Returns domain.ErrUserNotFound when there is none, and an error matching
	// domain.ErrUpstream when the lookup itself fails.
	LookupUserIDByEmail(ctx context.Context, email string) (string, error)
}
