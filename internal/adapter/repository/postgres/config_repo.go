package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

const configColumns = `
	user_id, ledger_budget_id, ledger_account_id, split_group_id,
	split_user_id, currency_code, sync_marker, split_ratio, payee_mode,
	custom_payee_name, ledger_manual_flag, ledger_synced_flag,
	ledger_access_token, ledger_refresh_token, split_access_token,
	subscription_status, tier, disabled, disabled_reason, suggested_fix,
	created_at, updated_at
`

// ConfigRepository implements config persistence.
type ConfigRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository creates a new config repository.
func NewConfigRepository(pool *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

func scanConfig(row pgx.Row) (*domain.UserSyncConfig, error) {
	var cfg domain.UserSyncConfig
	err := row.Scan(
		&cfg.UserID,
		&cfg.LedgerBudgetID,
		&cfg.LedgerAccountID,
		&cfg.SplitGroupID,
		&cfg.SplitUserID,
		&cfg.CurrencyCode,
		&cfg.SyncMarker,
		&cfg.SplitRatio,
		&cfg.PayeeMode,
		&cfg.CustomPayeeName,
		&cfg.LedgerManualFlag,
		&cfg.LedgerSyncedFlag,
		&cfg.LedgerAccessToken,
		&cfg.LedgerRefreshToken,
		&cfg.SplitAccessToken,
		&cfg.SubscriptionStatus,
		&cfg.Tier,
		&cfg.Disabled,
		&cfg.DisabledReason,
		&cfg.SuggestedFix,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetByUserID retrieves a user's sync configuration.
func (r *ConfigRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
	query := `SELECT ` + configColumns + ` FROM user_sync_configs WHERE user_id = $1`

	cfg, err := scanConfig(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConfigNotFound
	}
	return cfg, err
}

// GetByGroupID retrieves the config bound to a split group, or
// (nil, nil) when the group is unclaimed.
func (r *ConfigRepository) GetByGroupID(ctx context.Context, groupID string) (*domain.UserSyncConfig, error) {
	query := `SELECT ` + configColumns + ` FROM user_sync_configs WHERE split_group_id = $1 LIMIT 1`

	cfg, err := scanConfig(r.pool.QueryRow(ctx, query, groupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return cfg, err
}

const upsertConfigQuery = `
	INSERT INTO user_sync_configs (` + configColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (user_id) DO UPDATE SET
		ledger_budget_id = EXCLUDED.ledger_budget_id,
		ledger_account_id = EXCLUDED.ledger_account_id,
		split_group_id = EXCLUDED.split_group_id,
		split_user_id = EXCLUDED.split_user_id,
		currency_code = EXCLUDED.currency_code,
		sync_marker = EXCLUDED.sync_marker,
		split_ratio = EXCLUDED.split_ratio,
		payee_mode = EXCLUDED.payee_mode,
		custom_payee_name = EXCLUDED.custom_payee_name,
		ledger_manual_flag = EXCLUDED.ledger_manual_flag,
		ledger_synced_flag = EXCLUDED.ledger_synced_flag,
		ledger_access_token = EXCLUDED.ledger_access_token,
		ledger_refresh_token = EXCLUDED.ledger_refresh_token,
		split_access_token = EXCLUDED.split_access_token,
		subscription_status = EXCLUDED.subscription_status,
		tier = EXCLUDED.tier,
		disabled = EXCLUDED.disabled,
		disabled_reason = EXCLUDED.disabled_reason,
		suggested_fix = EXCLUDED.suggested_fix,
		updated_at = EXCLUDED.updated_at
`

func configArgs(cfg *domain.UserSyncConfig, now time.Time) []any {
	createdAt := cfg.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := cfg.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return []any{
		cfg.UserID,
		cfg.LedgerBudgetID,
		cfg.LedgerAccountID,
		cfg.SplitGroupID,
		cfg.SplitUserID,
		cfg.CurrencyCode,
		cfg.SyncMarker,
		cfg.SplitRatio,
		cfg.PayeeMode,
		cfg.CustomPayeeName,
		cfg.LedgerManualFlag,
		cfg.LedgerSyncedFlag,
		cfg.LedgerAccessToken,
		cfg.LedgerRefreshToken,
		cfg.SplitAccessToken,
		cfg.SubscriptionStatus,
		cfg.Tier,
		cfg.Disabled,
		cfg.DisabledReason,
		cfg.SuggestedFix,
		createdAt,
		updatedAt,
	}
}

// Save upserts a config inside a transaction, so duo propagation can
// write both partners atomically.
func (r *ConfigRepository) Save(ctx context.Context, tx usecase.Transaction, cfg *domain.UserSyncConfig) error {
	pgxTx := tx.(*Tx).PgxTx()
	_, err := pgxTx.Exec(ctx, upsertConfigQuery, configArgs(cfg, time.Now().UTC())...)
	return err
}

// Update upserts a config outside any transaction.
func (r *ConfigRepository) Update(ctx context.Context, cfg *domain.UserSyncConfig) error {
	_, err := r.pool.Exec(ctx, upsertConfigQuery, configArgs(cfg, time.Now().UTC())...)
	return err
}

// ListEligible returns all configs included in scheduled batch runs.
func (r *ConfigRepository) ListEligible(ctx context.Context) ([]*domain.UserSyncConfig, error) {
	query := `
		SELECT ` + configColumns + `
		FROM user_sync_configs
		WHERE NOT disabled
		  AND subscription_status IN ('active', 'trialing')
		  AND ledger_access_token <> ''
		  AND ledger_account_id <> ''
		  AND split_access_token <> ''
		  AND split_group_id <> ''
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.UserSyncConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// SaveLedgerTokens persists rotated OAuth tokens without touching the
// rest of the config. Called from the ledger client mid-pass.
func (r *ConfigRepository) SaveLedgerTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	query := `
		UPDATE user_sync_configs
		SET ledger_access_token = $2, ledger_refresh_token = $3, updated_at = $4
		WHERE user_id = $1
	`

	_, err := r.pool.Exec(ctx, query, userID, accessToken, refreshToken, time.Now().UTC())
	return err
}
