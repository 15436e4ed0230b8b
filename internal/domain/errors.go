package domain

import "errors"

var (
	// Configuration errors
	ErrConfigNotFound    = errors.New("sync configuration not found")
	ErrConfigIncomplete  = errors.New("sync configuration incomplete")
	ErrFlagConflict      = errors.New("synced flag must differ from manual flag")
	ErrInvalidSplitRatio = errors.New("split ratio must match a:b with non-negative integers")
	ErrInvalidMarker     = errors.New("sync marker must not be empty")

	// Duo-mode errors
	ErrMarkerConflict       = errors.New("sync marker already used by linked partner")
	ErrGroupInUseSolo       = errors.New("group is in use by a solo account")
	ErrGroupInUseDual       = errors.New("group is in use by a dual account with no open invite")
	ErrAlreadyLinked        = errors.New("account already has a linked partner")
	ErrNotLinked            = errors.New("account has no linked partner")
	ErrConfirmationRequired = errors.New("unlinking a partner requires confirmation")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteExpired        = errors.New("invite has expired")
	ErrSelfLink             = errors.New("cannot link an account to itself")

	// Sync errors
	ErrAccountDisabled = errors.New("account is disabled for syncing")
	ErrNotEligible     = errors.New("subscription is not eligible for syncing")
	ErrSyncInProgress  = errors.New("a sync pass is already running for this user")
	ErrHistoryNotFound = errors.New("sync history not found")
	ErrCursorNotFound  = errors.New("sync cursor not found")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)
