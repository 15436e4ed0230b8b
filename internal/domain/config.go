package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PayeeMode controls how the payee field is derived when pushing to
// the ledger side.
type PayeeMode string

const (
	// PayeeModeDefault derives the payee from the source description.
	PayeeModeDefault PayeeMode = "default"
	// PayeeModeCustom uses a fixed configured payee name.
	PayeeModeCustom PayeeMode = "custom"
)

// SubscriptionStatus gates batch eligibility.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionLapsed   SubscriptionStatus = "lapsed"
	SubscriptionNone     SubscriptionStatus = "none"
)

// Tier selects the manual-trigger rate limit rules.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// DuoMode is the account's linking mode.
type DuoMode string

const (
	ModeSolo         DuoMode = "solo"
	ModeDualPrimary  DuoMode = "dual_primary"
	ModeDualSecondary DuoMode = "dual_secondary"
)

var splitRatioPattern = regexp.MustCompile(`^\d+:\d+$`)

// SplitRatio is an a:b pair apportioning a shared expense's cost
// between the two duo-mode users.
type SplitRatio struct {
	A int64
	B int64
}

// ParseSplitRatio parses and validates an "a:b" ratio string.
func ParseSplitRatio(s string) (SplitRatio, error) {
	if !splitRatioPattern.MatchString(s) {
		return SplitRatio{}, ErrInvalidSplitRatio
	}

	parts := strings.SplitN(s, ":", 2)
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return SplitRatio{}, ErrInvalidSplitRatio
	}

	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return SplitRatio{}, ErrInvalidSplitRatio
	}

	if a == 0 && b == 0 {
		return SplitRatio{}, ErrInvalidSplitRatio
	}

	return SplitRatio{A: a, B: b}, nil
}

// Reverse returns the mirrored ratio: the secondary of a 7:3 primary
// stores 3:7.
func (r SplitRatio) Reverse() SplitRatio {
	return SplitRatio{A: r.B, B: r.A}
}

// String renders the ratio back to "a:b" form.
func (r SplitRatio) String() string {
	return fmt.Sprintf("%d:%d", r.A, r.B)
}

// ReverseSplitRatio reverses an "a:b" string, validating it first.
func ReverseSplitRatio(s string) (string, error) {
	r, err := ParseSplitRatio(s)
	if err != nil {
		return "", err
	}
	return r.Reverse().String(), nil
}

// UserSyncConfig holds everything the reconciler needs for one user.
// It is created and mutated by the settings surface; invariant
// enforcement and duo propagation live in the duo resolver.
type UserSyncConfig struct {
	UserID          string
	LedgerBudgetID  string
	LedgerAccountID string
	SplitGroupID    string
	SplitUserID     string
	CurrencyCode    string
	SyncMarker      string
	SplitRatio      string
	PayeeMode       PayeeMode
	CustomPayeeName string

	// Ledger-side flag values. The manual flag marks transactions the
	// user wants synced; the synced flag replaces it after processing.
	LedgerManualFlag string
	LedgerSyncedFlag string

	// Credentials for the upstream services.
	LedgerAccessToken  string
	LedgerRefreshToken string
	SplitAccessToken   string

	SubscriptionStatus SubscriptionStatus
	Tier               Tier

	Disabled       bool
	DisabledReason string
	SuggestedFix   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the config's own invariants.
func (c *UserSyncConfig) Validate() error {
	if c.SyncMarker == "" {
		return ErrInvalidMarker
	}

	if c.LedgerSyncedFlag == c.LedgerManualFlag {
		return ErrFlagConflict
	}

	if c.SplitRatio != "" {
		if _, err := ParseSplitRatio(c.SplitRatio); err != nil {
			return err
		}
	}

	return nil
}

// BothSidesConfigured reports whether the user can run a pass at all.
func (c *UserSyncConfig) BothSidesConfigured() bool {
	return c.LedgerAccessToken != "" &&
		c.LedgerAccountID != "" &&
		c.SplitAccessToken != "" &&
		c.SplitGroupID != ""
}

// Eligible reports whether the user is included in scheduled batch
// runs: both sides configured, not disabled, active or trialing.
func (c *UserSyncConfig) Eligible() bool {
	if c.Disabled || !c.BothSidesConfigured() {
		return false
	}

	return c.SubscriptionStatus == SubscriptionActive ||
		c.SubscriptionStatus == SubscriptionTrialing
}

// Disable flags the account out of syncing with a reason the user can
// act on. Clearing it is a manual operation with no verification.
func (c *UserSyncConfig) Disable(reason, suggestedFix string) {
	c.Disabled = true
	c.DisabledReason = reason
	c.SuggestedFix = suggestedFix
}

// Enable clears the disabled flag. A recurring root cause will
// re-disable the account on the next pass.
func (c *UserSyncConfig) Enable() {
	c.Disabled = false
	c.DisabledReason = ""
	c.SuggestedFix = ""
}

// ClearSharedFields removes the duo-shared configuration while keeping
// personal fields such as the sync marker. Used on unlink.
func (c *UserSyncConfig) ClearSharedFields() {
	c.SplitGroupID = ""
	c.CurrencyCode = ""
	c.SplitRatio = ""
}

// DuoLink relates a primary account to its single secondary.
type DuoLink struct {
	PrimaryUserID   string
	SecondaryUserID string
	LinkedAt        time.Time
}

// Partner returns the other side of the link, or "" if userID is not
// part of it.
func (l *DuoLink) Partner(userID string) string {
	switch userID {
	case l.PrimaryUserID:
		return l.SecondaryUserID
	case l.SecondaryUserID:
		return l.PrimaryUserID
	default:
		return ""
	}
}

// InviteStatus is the lifecycle of a duo invite.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

// DuoInvite is a pending offer from a primary to link a secondary.
type DuoInvite struct {
	ID            string
	PrimaryUserID string
	Code          string
	Status        InviteStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Open reports whether the invite can still be accepted at the given
// time.
func (i *DuoInvite) Open(now time.Time) bool {
	return i.Status == InviteStatusPending && now.Before(i.ExpiresAt)
}
