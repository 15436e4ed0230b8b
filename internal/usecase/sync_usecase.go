package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/adapter/ledgerapi"
	"github.com/iho/splitsync/internal/adapter/splitapi"
	"github.com/iho/splitsync/internal/apierror"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/infrastructure/metrics"
	"github.com/iho/splitsync/internal/transform"
)

// SyncUseCase runs one reconciliation pass per user: fetch, transform,
// push, mark — each direction in turn, with per-item error recovery
// and unconditional cursor advancement at the end of a direction's
// loop.
type SyncUseCase struct {
	txManager   TransactionManager
	configRepo  ConfigRepository
	cursorRepo  CursorRepository
	historyRepo HistoryRepository
	clients     ClientFactory
	locker      PassLocker
	notifier    Notifier
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewSyncUseCase creates a new SyncUseCase. metrics may be nil.
func NewSyncUseCase(
	txManager TransactionManager,
	configRepo ConfigRepository,
	cursorRepo CursorRepository,
	historyRepo HistoryRepository,
	clients ClientFactory,
	locker PassLocker,
	notifier Notifier,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		txManager:   txManager,
		configRepo:  configRepo,
		cursorRepo:  cursorRepo,
		historyRepo: historyRepo,
		clients:     clients,
		locker:      locker,
		notifier:    notifier,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// SyncResult is the outcome of one pass.
type SyncResult struct {
	Success            bool
	SyncHistoryID      string
	Status             domain.SyncStatus
	SyncedTransactions []*domain.SyncedItem
	SyncedExpenses     []*domain.SyncedItem
	Error              string
}

// directionOutcome aggregates one direction's loop.
type directionOutcome struct {
	items    []*domain.SyncedItem
	failed   int
	aborted  bool
	abortErr error
}

// RunPass runs one full reconciliation pass for the user.
func (uc *SyncUseCase) RunPass(ctx context.Context, userID string) (*SyncResult, error) {
	cfg, err := uc.configRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cfg.Disabled {
		return nil, domain.ErrAccountDisabled
	}

	if !cfg.BothSidesConfigured() {
		return nil, domain.ErrConfigIncomplete
	}

	acquired, err := uc.locker.Acquire(ctx, userID, PassLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrSyncInProgress
	}
	defer func() {
		if releaseErr := uc.locker.Release(context.WithoutCancel(ctx), userID); releaseErr != nil {
			uc.logger.Warn().Err(releaseErr).Str("user_id", userID).Msg("failed to release pass lock")
		}
	}()

	start := time.Now().UTC()
	if uc.metrics != nil {
		uc.metrics.PassesStarted.Inc()
	}

	hadSuccessBefore, err := uc.historyRepo.HasSuccess(ctx, userID)
	if err != nil {
		return nil, err
	}

	history := &domain.SyncHistory{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Status:    domain.SyncStatusPending,
		StartedAt: start,
	}
	if err := uc.historyRepo.Create(ctx, history); err != nil {
		return nil, err
	}

	ledger := uc.clients.Ledger(cfg)
	split := uc.clients.Split(cfg)

	splitOut := uc.runSplitToLedger(ctx, cfg, ledger, split, history)

	var ledgerOut directionOutcome
	if !splitOut.aborted {
		ledgerOut = uc.runLedgerToSplit(ctx, cfg, ledger, split, history)
	}

	aborted := splitOut.aborted || ledgerOut.aborted
	failed := splitOut.failed + ledgerOut.failed
	total := len(splitOut.items) + len(ledgerOut.items)
	status := domain.FinalStatus(aborted, failed, total)

	errMsg := ""
	if abortErr := firstError(splitOut.abortErr, ledgerOut.abortErr); abortErr != nil {
		errMsg = abortErr.Error()
		uc.handleFatal(ctx, cfg, abortErr)
	}

	history.Complete(status, time.Now().UTC(), errMsg)
	if err := uc.historyRepo.Complete(ctx, history); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PassesFinished.WithLabelValues(string(status)).Inc()
		uc.metrics.PassDuration.Observe(time.Since(start).Seconds())
	}

	uc.emitOutcomeEvents(ctx, userID, status, hadSuccessBefore, failed)

	uc.logger.Info().
		Str("user_id", userID).
		Str("status", string(status)).
		Int("items", total).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("sync pass finished")

	return &SyncResult{
		Success:            status != domain.SyncStatusError,
		SyncHistoryID:      history.ID,
		Status:             status,
		SyncedTransactions: splitOut.items,
		SyncedExpenses:     ledgerOut.items,
		Error:              errMsg,
	}, nil
}

// runSplitToLedger processes expenses updated on the split side into
// ledger transactions.
func (uc *SyncUseCase) runSplitToLedger(ctx context.Context, cfg *domain.UserSyncConfig, ledger LedgerClient, split SplitClient, history *domain.SyncHistory) directionOutcome {
	var out directionOutcome

	cursor, err := uc.cursorRepo.Get(ctx, cfg.UserID)
	if err != nil {
		return abortedOutcome(err)
	}

	fetchedAt := time.Now().UTC()

	expenses, err := split.FetchUnprocessed(ctx, cfg.SplitGroupID, cursor.SplitSince(), cfg.SyncMarker)
	if err != nil {
		uc.countUpstreamError(err)
		return abortedOutcome(err)
	}

	for _, expense := range expenses {
		item, fatal := uc.processExpense(ctx, cfg, ledger, split, history, expense)
		out.items = append(out.items, item)

		if item.Status == domain.ItemStatusError {
			out.failed++
		}
		if fatal != nil {
			out.aborted = true
			out.abortErr = fatal
			break
		}
	}

	return uc.finishDirection(ctx, history, out, func(tx Transaction) error {
		// The watermark moves to the fetch time: everything updated
		// before it has been seen, whatever each item's outcome was.
		return uc.cursorRepo.SaveSplit(ctx, tx, cfg.UserID, fetchedAt)
	})
}

// runLedgerToSplit processes flagged ledger transactions into split
// expenses.
func (uc *SyncUseCase) runLedgerToSplit(ctx context.Context, cfg *domain.UserSyncConfig, ledger LedgerClient, split SplitClient, history *domain.SyncHistory) directionOutcome {
	var out directionOutcome

	cursor, err := uc.cursorRepo.Get(ctx, cfg.UserID)
	if err != nil {
		return abortedOutcome(err)
	}

	transactions, serverKnowledge, err := ledger.FetchUnprocessed(ctx, cursor.LedgerServerKnowledge, ledgerapi.FetchFilter{
		ManualFlag:    cfg.LedgerManualFlag,
		SyncAccountID: cfg.LedgerAccountID,
	})
	if err != nil {
		uc.countUpstreamError(err)
		return abortedOutcome(err)
	}

	for _, tx := range transactions {
		item, fatal := uc.processTransaction(ctx, cfg, ledger, split, history, tx)
		out.items = append(out.items, item)

		if item.Status == domain.ItemStatusError {
			out.failed++
		}
		if fatal != nil {
			out.aborted = true
			out.abortErr = fatal
			break
		}
	}

	return uc.finishDirection(ctx, history, out, func(tx Transaction) error {
		// The returned server knowledge is stored regardless of
		// per-item success.
		return uc.cursorRepo.SaveLedger(ctx, tx, cfg.UserID, serverKnowledge)
	})
}

// processExpense pushes one split expense into the ledger and marks it
// processed. A non-nil second return aborts the direction.
func (uc *SyncUseCase) processExpense(ctx context.Context, cfg *domain.UserSyncConfig, ledger LedgerClient, split SplitClient, history *domain.SyncHistory, expense splitapi.Expense) (*domain.SyncedItem, error) {
	item := &domain.SyncedItem{
		ID:            uc.idGen.Generate(),
		SyncHistoryID: history.ID,
		ExternalID:    expense.ID,
		Type:          "expense",
		Description:   expense.Description,
		Date:          expense.Date,
		Direction:     domain.DirectionSplitToLedger,
		Status:        domain.ItemStatusSuccess,
	}

	amount, err := transform.RepaymentAmount(toTransformRepayments(expense.Repayments), cfg.SplitUserID)
	if err != nil {
		return uc.failItem(item, err)
	}
	item.Amount = amount

	payee, memo := transform.PayeeMemo(cfg.PayeeMode, cfg.CustomPayeeName, expense.Description, expense.Details)

	_, err = ledger.Push(ctx, ledgerapi.NewTransaction{
		AccountID: cfg.LedgerAccountID,
		Amount:    amount,
		PayeeName: payee,
		Memo:      memo,
		Date:      expense.Date.Format("2006-01-02"),
		FlagColor: cfg.LedgerSyncedFlag,
		Cleared:   "cleared",
	})
	if err != nil {
		uc.countUpstreamError(err)
		return uc.failItem(item, err)
	}

	// Marking is best-effort: a failure here leaves the expense
	// unmarked, so it may be pushed again next pass. Accepted
	// at-least-once trade-off.
	if err := split.MarkProcessed(ctx, expense.ID, expense.Description, cfg.SyncMarker); err != nil {
		uc.logger.Warn().Err(err).
			Str("expense_id", expense.ID).
			Msg("pushed expense could not be marked; it may sync again")
	}

	uc.countItem(domain.DirectionSplitToLedger, item.Status)
	return item, nil
}

// processTransaction pushes one ledger transaction into the split
// group and flips its flag. A non-nil second return aborts the
// direction.
func (uc *SyncUseCase) processTransaction(ctx context.Context, cfg *domain.UserSyncConfig, ledger LedgerClient, split SplitClient, history *domain.SyncHistory, tx ledgerapi.Transaction) (*domain.SyncedItem, error) {
	item := &domain.SyncedItem{
		ID:            uc.idGen.Generate(),
		SyncHistoryID: history.ID,
		ExternalID:    tx.ID,
		Type:          "transaction",
		Amount:        tx.Amount,
		Description:   tx.PayeeName,
		Direction:     domain.DirectionLedgerToSplit,
		Status:        domain.ItemStatusSuccess,
	}
	if date, err := time.Parse("2006-01-02", tx.Date); err == nil {
		item.Date = date
	}

	description := tx.PayeeName
	if description == "" {
		description = tx.Memo
	}

	_, err := split.Push(ctx, splitapi.NewExpense{
		GroupID:      cfg.SplitGroupID,
		Description:  description,
		Details:      tx.Memo,
		Cost:         transform.CostFromMilliunits(tx.Amount),
		Date:         tx.Date,
		PaidByUserID: cfg.SplitUserID,
		SplitRatio:   cfg.SplitRatio,
	})
	if err != nil {
		uc.countUpstreamError(err)
		return uc.failItem(item, err)
	}

	// Best-effort marking, same trade-off as the split side.
	if err := ledger.MarkProcessed(ctx, tx.ID, cfg.LedgerSyncedFlag); err != nil {
		uc.logger.Warn().Err(err).
			Str("transaction_id", tx.ID).
			Msg("pushed transaction could not be flagged; it may sync again")
	}

	uc.countItem(domain.DirectionLedgerToSplit, item.Status)
	return item, nil
}

// failItem records a per-item failure. BadRequest failures are
// recoverable and the loop continues; anything else aborts the
// direction.
func (uc *SyncUseCase) failItem(item *domain.SyncedItem, err error) (*domain.SyncedItem, error) {
	item.Status = domain.ItemStatusError
	item.ErrorMessage = err.Error()
	uc.countItem(item.Direction, item.Status)

	if apierror.IsKind(err, apierror.KindBadRequest) {
		return item, nil
	}
	return item, err
}

// finishDirection persists the direction's items and advances its
// cursor in one transaction. The cursor moves even when items failed;
// it stays put only when the direction aborted.
func (uc *SyncUseCase) finishDirection(ctx context.Context, history *domain.SyncHistory, out directionOutcome, advance func(Transaction) error) directionOutcome {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		out.aborted = true
		out.abortErr = firstError(out.abortErr, err)
		return out
	}
	defer tx.Rollback(ctx)

	for _, item := range out.items {
		if err := uc.historyRepo.AddItem(ctx, tx, item); err != nil {
			out.aborted = true
			out.abortErr = firstError(out.abortErr, err)
			return out
		}
	}

	if !out.aborted {
		if err := advance(tx); err != nil {
			out.aborted = true
			out.abortErr = err
			return out
		}
	}

	if err := tx.Commit(ctx); err != nil {
		out.aborted = true
		out.abortErr = firstError(out.abortErr, err)
		return out
	}

	history.Items = append(history.Items, out.items...)
	return out
}

// handleFatal disables the account when the aborting error requires
// user action.
func (uc *SyncUseCase) handleFatal(ctx context.Context, cfg *domain.UserSyncConfig, err error) {
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) || !apiErr.RequiresAction {
		return
	}

	cfg.Disable(apiErr.Message, apiErr.SuggestedFix)
	if updateErr := uc.configRepo.Update(ctx, cfg); updateErr != nil {
		uc.logger.Error().Err(updateErr).Str("user_id", cfg.UserID).Msg("failed to disable account")
		return
	}

	if uc.metrics != nil {
		uc.metrics.AccountsDisabled.WithLabelValues(apiErr.Kind.String()).Inc()
	}

	uc.notify(ctx, domain.Event{
		Type:       domain.EventAccountDisabled,
		UserID:     cfg.UserID,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"reason":        apiErr.Message,
			"suggested_fix": apiErr.SuggestedFix,
		},
	})
}

func (uc *SyncUseCase) emitOutcomeEvents(ctx context.Context, userID string, status domain.SyncStatus, hadSuccessBefore bool, failed int) {
	now := time.Now().UTC()

	switch status {
	case domain.SyncStatusSuccess:
		if !hadSuccessBefore {
			uc.notify(ctx, domain.Event{
				Type:       domain.EventFirstSyncSucceeded,
				UserID:     userID,
				OccurredAt: now,
			})
		}
	case domain.SyncStatusPartial:
		uc.notify(ctx, domain.Event{
			Type:       domain.EventSyncPartialFailure,
			UserID:     userID,
			OccurredAt: now,
			Payload:    map[string]any{"failed_items": failed},
		})
	}
}

func (uc *SyncUseCase) notify(ctx context.Context, event domain.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to emit event")
	}
}

func (uc *SyncUseCase) countItem(direction domain.Direction, status domain.ItemStatus) {
	if uc.metrics != nil {
		uc.metrics.ItemsProcessed.WithLabelValues(string(direction), string(status)).Inc()
	}
}

func (uc *SyncUseCase) countUpstreamError(err error) {
	if uc.metrics == nil {
		return
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		uc.metrics.UpstreamErrors.WithLabelValues(apiErr.Op, apiErr.Kind.String()).Inc()
	}
}

func abortedOutcome(err error) directionOutcome {
	return directionOutcome{aborted: true, abortErr: err}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func toTransformRepayments(reps []splitapi.Repayment) []transform.Repayment {
	out := make([]transform.Repayment, len(reps))
	for i, r := range reps {
		out[i] = transform.Repayment{
			FromUserID: r.FromUserID,
			ToUserID:   r.ToUserID,
			Amount:     r.Amount,
		}
	}
	return out
}
