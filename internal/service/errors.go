package service

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("not allowed")

	ErrSnippetNotFound  = errors.New("snippet not found")
	ErrSellerNotFound   = errors.New("seller not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrMissingSnippetID = errors.New("snippetId is required")
	ErrInvalidPrice     = errors.New("price must not be negative")

	ErrSelfPurchase     = errors.New("you cannot purchase your own snippet")
	ErrFreeSnippet      = errors.New("this snippet is free, no payment needed")
	ErrAlreadyPurchased = errors.New("you have already purchased this snippet")
	ErrPaymentRequired  = errors.New("paid snippets must be bought through checkout")
	ErrNoAccess         = errors.New("purchase this snippet to access it")

	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrInvalidPayload   = errors.New("malformed webhook payload")
	ErrOrderNotPending  = errors.New("order can no longer be cancelled")
	ErrGateway          = errors.New("payment provider unavailable")
)
