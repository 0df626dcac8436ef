package namewrap

import "errors"

var (
	// ErrUnauthorised is an exported constant or variable used by the wrapping engine.
	ErrUnauthorised = errors.New("not authorised")
	// ErrOperationProhibited is an exported constant or variable used by the wrapping engine.
	ErrOperationProhibited = errors.New("operation prohibited by burned fuses")
	// ErrIncompatibleParent is an exported constant or variable used by the wrapping engine.
	ErrIncompatibleParent = errors.New("incompatible parent for this operation")
	// ErrIncorrectTargetOwner is an exported constant or variable used by the wrapping engine.
	ErrIncorrectTargetOwner = errors.New("incorrect target owner")
	// ErrIncorrectTokenType is an exported constant or variable used by the wrapping engine.
	ErrIncorrectTokenType = errors.New("registration from untrusted source")
	// ErrRegistrationRateLimited is an exported constant or variable used by the wrapping engine.
	ErrRegistrationRateLimited = errors.New("registration rate limited")
	// ErrRenewRateLimited is an exported constant or variable used by the wrapping engine.
	ErrRenewRateLimited = errors.New("renew rate limited")
	// ErrNotWrapped is an exported constant or variable used by the wrapping engine.
	ErrNotWrapped = errors.New("name is not wrapped")
)
