package scheduling

import "errors"

// Sentinel errors for the scheduling service layer.
var (
	ErrNotFound      = errors.New("schedule not found")
	ErrBrandUnknown  = errors.New("brand unknown")
	ErrTimeInPast    = errors.New("scheduled time is in the past")
	ErrLeadTooShort  = errors.New("scheduled time is inside the minimum lead window")
	ErrConflict      = errors.New("scheduling conflict")
	ErrInvalidState  = errors.New("schedule state forbids this operation")
	ErrEditLocked    = errors.New("schedule is inside the pre-publish edit lock")
	ErrNoPlatforms   = errors.New("no platforms given")
	ErrBadPlatform   = errors.New("unknown platform")
	ErrBadStrategy   = errors.New("unknown distribution strategy")
	ErrEmptyContent  = errors.New("content is empty")
	ErrLimitExceeded = errors.New("platform limit exceeded")
)
