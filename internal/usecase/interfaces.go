package usecase

import (
	"context"
	"time"

	"github.com/iho/splitsync/internal/adapter/ledgerapi"
	"github.com/iho/splitsync/internal/adapter/splitapi"
	"github.com/iho/splitsync/internal/domain"
)

// ConfigRepository defines data access for user sync configurations.
type ConfigRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.UserSyncConfig, error)
	// GetByGroupID returns the config bound to a split group, or
	// (nil, nil) when the group is unclaimed.
	GetByGroupID(ctx context.Context, groupID string) (*domain.UserSyncConfig, error)
	Save(ctx context.Context, tx Transaction, cfg *domain.UserSyncConfig) error
	Update(ctx context.Context, cfg *domain.UserSyncConfig) error
	ListEligible(ctx context.Context) ([]*domain.UserSyncConfig, error)
	SaveLedgerTokens(ctx context.Context, userID, accessToken, refreshToken string) error
}

// CursorRepository defines data access for per-user sync cursors.
// Watermark updates must be monotonic non-decreasing.
type CursorRepository interface {
	// Get returns the user's cursor, creating a zero cursor on first use.
	Get(ctx context.Context, userID string) (*domain.SyncCursor, error)
	SaveLedger(ctx context.Context, tx Transaction, userID string, serverKnowledge int64) error
	SaveSplit(ctx context.Context, tx Transaction, userID string, updatedAfter time.Time) error
}

// HistoryRepository defines data access for sync passes and their items.
type HistoryRepository interface {
	Create(ctx context.Context, history *domain.SyncHistory) error
	Complete(ctx context.Context, history *domain.SyncHistory) error
	AddItem(ctx context.Context, tx Transaction, item *domain.SyncedItem) error
	GetByID(ctx context.Context, id string) (*domain.SyncHistory, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error)
	// HasSuccess reports whether the user has ever completed a
	// successful pass. Drives the first-success notification.
	HasSuccess(ctx context.Context, userID string) (bool, error)
}

// DuoRepository defines data access for duo links and invites.
type DuoRepository interface {
	// GetLinkByUser returns the link the user participates in, or
	// (nil, nil) when solo.
	GetLinkByUser(ctx context.Context, userID string) (*domain.DuoLink, error)
	CreateLink(ctx context.Context, tx Transaction, link *domain.DuoLink) error
	DeleteLink(ctx context.Context, tx Transaction, link *domain.DuoLink) error
	CreateInvite(ctx context.Context, invite *domain.DuoInvite) error
	GetInviteByCode(ctx context.Context, code string) (*domain.DuoInvite, error)
	MarkInviteAccepted(ctx context.Context, tx Transaction, inviteID string) error
	ExpireInvites(ctx context.Context, tx Transaction, primaryUserID string) error
	HasOpenInvite(ctx context.Context, primaryUserID string) (bool, error)
}

// RateLimitRepository performs the atomic sliding-window admission
// check. Implementations must increment-and-compare in a single atomic
// operation, never as separate read-then-write steps.
type RateLimitRepository interface {
	// Hit admits or denies one hit. On admission the returned counter
	// reflects the post-hit state; on denial it reflects the untouched
	// window so callers can compute a retry time.
	Hit(ctx context.Context, userID, key string, max int64, window time.Duration, now time.Time) (allowed bool, counter *domain.RateLimitCounter, err error)
}

// PassLocker serializes a user's pass against itself, e.g. a manual
// trigger racing a scheduled run.
type PassLocker interface {
	Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID string) error
}

// Notifier receives classified pass outcomes. Rendering and delivery
// are external; only the trigger condition lives in this module.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// LedgerClient is the per-user Ledger Service client surface.
type LedgerClient interface {
	FetchUnprocessed(ctx context.Context, serverKnowledge int64, filter ledgerapi.FetchFilter) ([]ledgerapi.Transaction, int64, error)
	Push(ctx context.Context, tx ledgerapi.NewTransaction) (string, error)
	MarkProcessed(ctx context.Context, transactionID, syncedFlag string) error
}

// SplitClient is the per-user Split-Expense Service client surface.
type SplitClient interface {
	FetchUnprocessed(ctx context.Context, groupID string, since time.Time, marker string) ([]splitapi.Expense, error)
	Push(ctx context.Context, expense splitapi.NewExpense) (string, error)
	MarkProcessed(ctx context.Context, expenseID, description, marker string) error
}

// ClientFactory builds per-user upstream clients from a config's
// stored credentials.
type ClientFactory interface {
	Ledger(cfg *domain.UserSyncConfig) LedgerClient
	Split(cfg *domain.UserSyncConfig) SplitClient
}

// Transaction represents a database transaction. AfterCommit hooks
// run once the transaction has committed; a rolled-back transaction
// never runs them. Cache layers use the hook to invalidate only after
// their write is visible.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	AfterCommit(fn func(ctx context.Context))
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
