package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iho/splitsync/internal/adapter/ledgerapi"
	"github.com/iho/splitsync/internal/adapter/splitapi"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// MockConfigRepository is a mock implementation of ConfigRepository.
type MockConfigRepository struct {
	mu      sync.RWMutex
	configs map[string]*domain.UserSyncConfig

	GetByUserIDFunc      func(ctx context.Context, userID string) (*domain.UserSyncConfig, error)
	GetByGroupIDFunc     func(ctx context.Context, groupID string) (*domain.UserSyncConfig, error)
	SaveFunc             func(ctx context.Context, tx usecase.Transaction, cfg *domain.UserSyncConfig) error
	UpdateFunc           func(ctx context.Context, cfg *domain.UserSyncConfig) error
	ListEligibleFunc     func(ctx context.Context) ([]*domain.UserSyncConfig, error)
	SaveLedgerTokensFunc func(ctx context.Context, userID, accessToken, refreshToken string) error
}

func NewMockConfigRepository() *MockConfigRepository {
	return &MockConfigRepository{
		configs: make(map[string]*domain.UserSyncConfig),
	}
}

// Seed stores a config directly, bypassing any overrides.
func (m *MockConfigRepository) Seed(cfg *domain.UserSyncConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.UserID] = cfg
}

func (m *MockConfigRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cfg, ok := m.configs[userID]; ok {
		return cfg, nil
	}
	return nil, domain.ErrConfigNotFound
}

func (m *MockConfigRepository) GetByGroupID(ctx context.Context, groupID string) (*domain.UserSyncConfig, error) {
	if m.GetByGroupIDFunc != nil {
		return m.GetByGroupIDFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cfg := range m.configs {
		if cfg.SplitGroupID == groupID {
			return cfg, nil
		}
	}
	return nil, nil
}

func (m *MockConfigRepository) Save(ctx context.Context, tx usecase.Transaction, cfg *domain.UserSyncConfig) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, cfg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.UserID] = cfg
	return nil
}

func (m *MockConfigRepository) Update(ctx context.Context, cfg *domain.UserSyncConfig) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, cfg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.UserID] = cfg
	return nil
}

func (m *MockConfigRepository) ListEligible(ctx context.Context) ([]*domain.UserSyncConfig, error) {
	if m.ListEligibleFunc != nil {
		return m.ListEligibleFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.UserSyncConfig
	for _, cfg := range m.configs {
		if cfg.Eligible() {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (m *MockConfigRepository) SaveLedgerTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	if m.SaveLedgerTokensFunc != nil {
		return m.SaveLedgerTokensFunc(ctx, userID, accessToken, refreshToken)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg, ok := m.configs[userID]; ok {
		cfg.LedgerAccessToken = accessToken
		cfg.LedgerRefreshToken = refreshToken
	}
	return nil
}

// MockCursorRepository is a mock implementation of CursorRepository.
type MockCursorRepository struct {
	mu      sync.RWMutex
	cursors map[string]*domain.SyncCursor

	GetFunc        func(ctx context.Context, userID string) (*domain.SyncCursor, error)
	SaveLedgerFunc func(ctx context.Context, tx usecase.Transaction, userID string, serverKnowledge int64) error
	SaveSplitFunc  func(ctx context.Context, tx usecase.Transaction, userID string, updatedAfter time.Time) error
}

func NewMockCursorRepository() *MockCursorRepository {
	return &MockCursorRepository{
		cursors: make(map[string]*domain.SyncCursor),
	}
}

func (m *MockCursorRepository) Seed(cursor *domain.SyncCursor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[cursor.UserID] = cursor
}

// Cursor returns the stored cursor for assertions.
func (m *MockCursorRepository) Cursor(userID string) *domain.SyncCursor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursors[userID]
}

func (m *MockCursorRepository) Get(ctx context.Context, userID string) (*domain.SyncCursor, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cursor, ok := m.cursors[userID]; ok {
		return cursor, nil
	}
	cursor := &domain.SyncCursor{UserID: userID}
	m.cursors[userID] = cursor
	return cursor, nil
}

func (m *MockCursorRepository) SaveLedger(ctx context.Context, tx usecase.Transaction, userID string, serverKnowledge int64) error {
	if m.SaveLedgerFunc != nil {
		return m.SaveLedgerFunc(ctx, tx, userID, serverKnowledge)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cursor, ok := m.cursors[userID]
	if !ok {
		cursor = &domain.SyncCursor{UserID: userID}
		m.cursors[userID] = cursor
	}
	cursor.AdvanceLedger(serverKnowledge)
	return nil
}

func (m *MockCursorRepository) SaveSplit(ctx context.Context, tx usecase.Transaction, userID string, updatedAfter time.Time) error {
	if m.SaveSplitFunc != nil {
		return m.SaveSplitFunc(ctx, tx, userID, updatedAfter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cursor, ok := m.cursors[userID]
	if !ok {
		cursor = &domain.SyncCursor{UserID: userID}
		m.cursors[userID] = cursor
	}
	cursor.AdvanceSplit(updatedAfter)
	return nil
}

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mu        sync.RWMutex
	histories map[string]*domain.SyncHistory

	CreateFunc     func(ctx context.Context, history *domain.SyncHistory) error
	CompleteFunc   func(ctx context.Context, history *domain.SyncHistory) error
	AddItemFunc    func(ctx context.Context, tx usecase.Transaction, item *domain.SyncedItem) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.SyncHistory, error)
	ListByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error)
	HasSuccessFunc func(ctx context.Context, userID string) (bool, error)
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{
		histories: make(map[string]*domain.SyncHistory),
	}
}

func (m *MockHistoryRepository) Seed(history *domain.SyncHistory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[history.ID] = history
}

// History returns a stored pass for assertions.
func (m *MockHistoryRepository) History(id string) *domain.SyncHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.histories[id]
}

func (m *MockHistoryRepository) Create(ctx context.Context, history *domain.SyncHistory) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, history)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[history.ID] = history
	return nil
}

func (m *MockHistoryRepository) Complete(ctx context.Context, history *domain.SyncHistory) error {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, history)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[history.ID] = history
	return nil
}

func (m *MockHistoryRepository) AddItem(ctx context.Context, tx usecase.Transaction, item *domain.SyncedItem) error {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, tx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if history, ok := m.histories[item.SyncHistoryID]; ok {
		history.Items = append(history.Items, item)
	}
	return nil
}

func (m *MockHistoryRepository) GetByID(ctx context.Context, id string) (*domain.SyncHistory, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if history, ok := m.histories[id]; ok {
		return history, nil
	}
	return nil, domain.ErrHistoryNotFound
}

func (m *MockHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.SyncHistory
	for _, history := range m.histories {
		if history.UserID == userID {
			out = append(out, history)
		}
	}
	return out, nil
}

func (m *MockHistoryRepository) HasSuccess(ctx context.Context, userID string) (bool, error) {
	if m.HasSuccessFunc != nil {
		return m.HasSuccessFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, history := range m.histories {
		if history.UserID == userID && history.Status == domain.SyncStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

// MockDuoRepository is a mock implementation of DuoRepository.
type MockDuoRepository struct {
	mu      sync.RWMutex
	links   []*domain.DuoLink
	invites map[string]*domain.DuoInvite

	GetLinkByUserFunc      func(ctx context.Context, userID string) (*domain.DuoLink, error)
	CreateLinkFunc         func(ctx context.Context, tx usecase.Transaction, link *domain.DuoLink) error
	DeleteLinkFunc         func(ctx context.Context, tx usecase.Transaction, link *domain.DuoLink) error
	CreateInviteFunc       func(ctx context.Context, invite *domain.DuoInvite) error
	GetInviteByCodeFunc    func(ctx context.Context, code string) (*domain.DuoInvite, error)
	MarkInviteAcceptedFunc func(ctx context.Context, tx usecase.Transaction, inviteID string) error
	ExpireInvitesFunc      func(ctx context.Context, tx usecase.Transaction, primaryUserID string) error
	HasOpenInviteFunc      func(ctx context.Context, primaryUserID string) (bool, error)
}

func NewMockDuoRepository() *MockDuoRepository {
	return &MockDuoRepository{
		invites: make(map[string]*domain.DuoInvite),
	}
}

func (m *MockDuoRepository) SeedLink(link *domain.DuoLink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
}

func (m *MockDuoRepository) SeedInvite(invite *domain.DuoInvite) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[invite.ID] = invite
}

// Links returns the stored links for assertions.
func (m *MockDuoRepository) Links() []*domain.DuoLink {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.DuoLink(nil), m.links...)
}

func (m *MockDuoRepository) GetLinkByUser(ctx context.Context, userID string) (*domain.DuoLink, error) {
	if m.GetLinkByUserFunc != nil {
		return m.GetLinkByUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, link := range m.links {
		if link.Partner(userID) != "" {
			return link, nil
		}
	}
	return nil, nil
}

func (m *MockDuoRepository) CreateLink(ctx context.Context, tx usecase.Transaction, link *domain.DuoLink) error {
	if m.CreateLinkFunc != nil {
		return m.CreateLinkFunc(ctx, tx, link)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *MockDuoRepository) DeleteLink(ctx context.Context, tx usecase.Transaction, link *domain.DuoLink) error {
	if m.DeleteLinkFunc != nil {
		return m.DeleteLinkFunc(ctx, tx, link)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.links[:0]
	for _, l := range m.links {
		if l.PrimaryUserID != link.PrimaryUserID || l.SecondaryUserID != link.SecondaryUserID {
			out = append(out, l)
		}
	}
	m.links = out
	return nil
}

func (m *MockDuoRepository) CreateInvite(ctx context.Context, invite *domain.DuoInvite) error {
	if m.CreateInviteFunc != nil {
		return m.CreateInviteFunc(ctx, invite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[invite.ID] = invite
	return nil
}

func (m *MockDuoRepository) GetInviteByCode(ctx context.Context, code string) (*domain.DuoInvite, error) {
	if m.GetInviteByCodeFunc != nil {
		return m.GetInviteByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, invite := range m.invites {
		if invite.Code == code {
			return invite, nil
		}
	}
	return nil, nil
}

func (m *MockDuoRepository) MarkInviteAccepted(ctx context.Context, tx usecase.Transaction, inviteID string) error {
	if m.MarkInviteAcceptedFunc != nil {
		return m.MarkInviteAcceptedFunc(ctx, tx, inviteID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if invite, ok := m.invites[inviteID]; ok {
		invite.Status = domain.InviteStatusAccepted
	}
	return nil
}

func (m *MockDuoRepository) ExpireInvites(ctx context.Context, tx usecase.Transaction, primaryUserID string) error {
	if m.ExpireInvitesFunc != nil {
		return m.ExpireInvitesFunc(ctx, tx, primaryUserID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, invite := range m.invites {
		if invite.PrimaryUserID == primaryUserID && invite.Status == domain.InviteStatusPending {
			invite.Status = domain.InviteStatusExpired
		}
	}
	return nil
}

func (m *MockDuoRepository) HasOpenInvite(ctx context.Context, primaryUserID string) (bool, error) {
	if m.HasOpenInviteFunc != nil {
		return m.HasOpenInviteFunc(ctx, primaryUserID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now().UTC()
	for _, invite := range m.invites {
		if invite.PrimaryUserID == primaryUserID && invite.Open(now) {
			return true, nil
		}
	}
	return false, nil
}

// MockRateLimitRepository is a mock implementation of
// RateLimitRepository backed by an in-memory fixed window.
type MockRateLimitRepository struct {
	mu       sync.Mutex
	counters map[string]*domain.RateLimitCounter

	HitFunc func(ctx context.Context, userID, key string, max int64, window time.Duration, now time.Time) (bool, *domain.RateLimitCounter, error)
}

func NewMockRateLimitRepository() *MockRateLimitRepository {
	return &MockRateLimitRepository{
		counters: make(map[string]*domain.RateLimitCounter),
	}
}

func (m *MockRateLimitRepository) Hit(ctx context.Context, userID, key string, max int64, window time.Duration, now time.Time) (bool, *domain.RateLimitCounter, error) {
	if m.HitFunc != nil {
		return m.HitFunc(ctx, userID, key, max, window, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := userID + ":" + key
	counter, ok := m.counters[id]
	if !ok || !now.Before(counter.WindowStart.Add(window)) {
		counter = &domain.RateLimitCounter{UserID: userID, Key: key, WindowStart: now, Count: 1}
		m.counters[id] = counter
		return true, counter, nil
	}
	if counter.Count >= max {
		return false, counter, nil
	}
	counter.Count++
	return true, counter, nil
}

// MockPassLocker is a mock implementation of PassLocker.
type MockPassLocker struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireFunc func(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, userID string) error
}

func NewMockPassLocker() *MockPassLocker {
	return &MockPassLocker{locks: make(map[string]bool)}
}

func (m *MockPassLocker) Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, userID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[userID] {
		return false, nil
	}
	m.locks[userID] = true
	return true, nil
}

func (m *MockPassLocker) Release(ctx context.Context, userID string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, userID)
	return nil
}

// MockNotifier records emitted events.
type MockNotifier struct {
	mu     sync.Mutex
	events []domain.Event

	NotifyFunc func(ctx context.Context, event domain.Event) error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, event domain.Event) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the recorded events for assertions.
func (m *MockNotifier) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.events...)
}

// MockLedgerClient is a scripted LedgerClient.
type MockLedgerClient struct {
	mu     sync.Mutex
	pushed []ledgerapi.NewTransaction
	marked []string

	FetchUnprocessedFunc func(ctx context.Context, serverKnowledge int64, filter ledgerapi.FetchFilter) ([]ledgerapi.Transaction, int64, error)
	PushFunc             func(ctx context.Context, tx ledgerapi.NewTransaction) (string, error)
	MarkProcessedFunc    func(ctx context.Context, transactionID, syncedFlag string) error
}

func NewMockLedgerClient() *MockLedgerClient {
	return &MockLedgerClient{}
}

func (m *MockLedgerClient) FetchUnprocessed(ctx context.Context, serverKnowledge int64, filter ledgerapi.FetchFilter) ([]ledgerapi.Transaction, int64, error) {
	if m.FetchUnprocessedFunc != nil {
		return m.FetchUnprocessedFunc(ctx, serverKnowledge, filter)
	}
	return nil, serverKnowledge, nil
}

func (m *MockLedgerClient) Push(ctx context.Context, tx ledgerapi.NewTransaction) (string, error) {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushed = append(m.pushed, tx)
	return "ledger-tx-1", nil
}

func (m *MockLedgerClient) MarkProcessed(ctx context.Context, transactionID, syncedFlag string) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, transactionID, syncedFlag)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, transactionID)
	return nil
}

// Pushed returns the recorded pushes for assertions.
func (m *MockLedgerClient) Pushed() []ledgerapi.NewTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledgerapi.NewTransaction(nil), m.pushed...)
}

// Marked returns the recorded mark calls for assertions.
func (m *MockLedgerClient) Marked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.marked...)
}

// MockSplitClient is a scripted SplitClient.
type MockSplitClient struct {
	mu     sync.Mutex
	pushed []splitapi.NewExpense
	marked []string

	FetchUnprocessedFunc func(ctx context.Context, groupID string, since time.Time, marker string) ([]splitapi.Expense, error)
	PushFunc             func(ctx context.Context, expense splitapi.NewExpense) (string, error)
	MarkProcessedFunc    func(ctx context.Context, expenseID, description, marker string) error
}

func NewMockSplitClient() *MockSplitClient {
	return &MockSplitClient{}
}

func (m *MockSplitClient) FetchUnprocessed(ctx context.Context, groupID string, since time.Time, marker string) ([]splitapi.Expense, error) {
	if m.FetchUnprocessedFunc != nil {
		return m.FetchUnprocessedFunc(ctx, groupID, since, marker)
	}
	return nil, nil
}

func (m *MockSplitClient) Push(ctx context.Context, expense splitapi.NewExpense) (string, error) {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushed = append(m.pushed, expense)
	return "split-exp-1", nil
}

func (m *MockSplitClient) MarkProcessed(ctx context.Context, expenseID, description, marker string) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, expenseID, description, marker)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, expenseID)
	return nil
}

// Pushed returns the recorded pushes for assertions.
func (m *MockSplitClient) Pushed() []splitapi.NewExpense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]splitapi.NewExpense(nil), m.pushed...)
}

// Marked returns the recorded mark calls for assertions.
func (m *MockSplitClient) Marked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.marked...)
}

// MockClientFactory returns fixed clients for every user.
type MockClientFactory struct {
	LedgerClient *MockLedgerClient
	SplitClient  *MockSplitClient
}

func NewMockClientFactory() *MockClientFactory {
	return &MockClientFactory{
		LedgerClient: NewMockLedgerClient(),
		SplitClient:  NewMockSplitClient(),
	}
}

func (m *MockClientFactory) Ledger(cfg *domain.UserSyncConfig) usecase.LedgerClient {
	return m.LedgerClient
}

func (m *MockClientFactory) Split(cfg *domain.UserSyncConfig) usecase.SplitClient {
	return m.SplitClient
}

// MockTransaction is a no-op Transaction. After-commit hooks run on
// Commit, matching the real transaction's contract.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	hooks []func(ctx context.Context)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	for _, fn := range m.hooks {
		fn(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) AfterCommit(fn func(ctx context.Context)) {
	m.hooks = append(m.hooks, fn)
}

// MockTransactionManager hands out no-op transactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator returns sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "id-" + strconv.Itoa(m.counter)
}
