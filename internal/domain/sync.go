package domain

import "time"

// SourceSide identifies which upstream service an item came from.
type SourceSide string

const (
	SideLedger SourceSide = "ledger"
	SideSplit  SourceSide = "split"
)

// Direction identifies which way an item flowed during a pass.
type Direction string

const (
	DirectionSplitToLedger Direction = "split_to_ledger"
	DirectionLedgerToSplit Direction = "ledger_to_split"
)

// SyncStatus is the lifecycle status of a sync pass.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusError   SyncStatus = "error"
)

// ItemStatus is the outcome of a single attempted item.
type ItemStatus string

const (
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusError   ItemStatus = "error"
)

// SplitEpoch is the minimum watermark for the split side. Fetches are
// clamped here so a stale or corrupt watermark cannot trigger a
// full-history rescan.
var SplitEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// SyncCursor holds the per-user watermarks for both sides. The ledger
// side uses the server-knowledge token returned by the Ledger API; the
// split side uses an updated-after timestamp.
type SyncCursor struct {
	UserID               string
	LedgerServerKnowledge int64
	SplitUpdatedAfter    time.Time
	UpdatedAt            time.Time
}

// SplitSince returns the split watermark clamped to SplitEpoch.
func (c *SyncCursor) SplitSince() time.Time {
	if c.SplitUpdatedAfter.Before(SplitEpoch) {
		return SplitEpoch
	}
	return c.SplitUpdatedAfter
}

// AdvanceLedger moves the ledger watermark forward. Regressions are
// ignored: the watermark is monotonic non-decreasing.
func (c *SyncCursor) AdvanceLedger(serverKnowledge int64) {
	if serverKnowledge > c.LedgerServerKnowledge {
		c.LedgerServerKnowledge = serverKnowledge
	}
}

// AdvanceSplit moves the split watermark forward, ignoring regressions.
func (c *SyncCursor) AdvanceSplit(at time.Time) {
	if at.After(c.SplitUpdatedAfter) {
		c.SplitUpdatedAfter = at
	}
}

// TransactionItem is a normalized item produced during a pass. Amounts
// are signed milliunits: positive is an inflow for the syncing user.
type TransactionItem struct {
	ExternalID  string
	Amount      int64
	Description string
	Memo        string
	Date        time.Time
	SourceSide  SourceSide
}

// SyncedItem is the immutable outcome record for one attempted item.
type SyncedItem struct {
	ID            string
	SyncHistoryID string
	ExternalID    string
	Type          string
	Amount        int64
	Description   string
	Date          time.Time
	Direction     Direction
	Status        ItemStatus
	ErrorMessage  string
}

// SyncHistory records one pass for one user. It owns a set of
// SyncedItems and is append-only after completion, except for the
// pending-to-final transition.
type SyncHistory struct {
	ID           string
	UserID       string
	Status       SyncStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Items        []*SyncedItem
}

// Complete transitions a pending pass to its final status.
func (h *SyncHistory) Complete(status SyncStatus, at time.Time, errMsg string) {
	h.Status = status
	h.CompletedAt = &at
	h.ErrorMessage = errMsg
}

// FinalStatus derives the pass status from per-direction outcomes.
// Any aborted direction makes the pass an error; item-level failures
// alone make it partial.
func FinalStatus(aborted bool, failedItems, totalItems int) SyncStatus {
	switch {
	case aborted:
		return SyncStatusError
	case failedItems > 0:
		return SyncStatusPartial
	default:
		return SyncStatusSuccess
	}
}
