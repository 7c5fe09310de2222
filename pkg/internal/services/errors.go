package services

import "errors"

var (
	ErrNotFound              = errors.New("record does not exist")
	ErrSelfFollow            = errors.New("you can not follow yourself")
	ErrAlreadyFollowing      = errors.New("you already follow this user")
	ErrDuplicateSubscription = errors.New("subscription already exists")
	ErrUnauthorized          = errors.New("unauthorized")

	// ErrTransactionAborted marks an expected rollback: the review payload
	// failed validation after the ticket write, so the whole scope unwinds.
	ErrTransactionAborted = errors.New("review validation failed")
)
