package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
	"github.com/iho/splitsync/internal/usecase/mocks"
)

type duoFixture struct {
	configRepo *mocks.MockConfigRepository
	duoRepo    *mocks.MockDuoRepository
	uc         *usecase.DuoUseCase
}

func newDuoFixture() *duoFixture {
	f := &duoFixture{
		configRepo: mocks.NewMockConfigRepository(),
		duoRepo:    mocks.NewMockDuoRepository(),
	}
	f.uc = usecase.NewDuoUseCase(
		mocks.NewMockTransactionManager(), f.configRepo, f.duoRepo,
		mocks.NewMockIDGenerator(), 72*time.Hour, nil, zerolog.Nop(),
	)
	return f
}

func TestDuoUseCase_InviteAcceptFlow(t *testing.T) {
	f := newDuoFixture()
	ctx := context.Background()

	primary := testConfig("alice")
	primary.SplitRatio = "7:3"
	primary.CurrencyCode = "EUR"
	f.configRepo.Seed(primary)

	secondary := testConfig("bob")
	secondary.SyncMarker = "[bob-synced]"
	secondary.SplitGroupID = ""
	secondary.CurrencyCode = ""
	f.configRepo.Seed(secondary)

	invite, err := f.uc.CreateInvite(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invite.Code == "" {
		t.Fatal("expected invite code")
	}

	link, err := f.uc.AcceptInvite(ctx, "bob", invite.Code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.PrimaryUserID != "alice" || link.SecondaryUserID != "bob" {
		t.Errorf("unexpected link %+v", link)
	}

	got, _ := f.configRepo.GetByUserID(ctx, "bob")
	if got.SplitGroupID != primary.SplitGroupID {
		t.Errorf("expected group adoption, got %q", got.SplitGroupID)
	}
	if got.CurrencyCode != "EUR" {
		t.Errorf("expected currency adoption, got %q", got.CurrencyCode)
	}
	if got.SplitRatio != "3:7" {
		t.Errorf("expected reversed ratio 3:7, got %q", got.SplitRatio)
	}
	if got.SyncMarker != "[bob-synced]" {
		t.Errorf("marker is personal and must not change, got %q", got.SyncMarker)
	}
}

func TestDuoUseCase_AcceptInvite(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		setup     func(*duoFixture) string
		errorType error
	}{
		{
			name:   "marker conflict",
			userID: "bob",
			setup: func(f *duoFixture) string {
				primary := testConfig("alice")
				f.configRepo.Seed(primary)
				secondary := testConfig("bob")
				secondary.SyncMarker = primary.SyncMarker
				f.configRepo.Seed(secondary)
				invite, _ := f.uc.CreateInvite(context.Background(), "alice")
				return invite.Code
			},
			errorType: domain.ErrMarkerConflict,
		},
		{
			name:   "self link",
			userID: "alice",
			setup: func(f *duoFixture) string {
				f.configRepo.Seed(testConfig("alice"))
				invite, _ := f.uc.CreateInvite(context.Background(), "alice")
				return invite.Code
			},
			errorType: domain.ErrSelfLink,
		},
		{
			name:   "expired invite",
			userID: "bob",
			setup: func(f *duoFixture) string {
				f.configRepo.Seed(testConfig("alice"))
				f.configRepo.Seed(testConfig("bob"))
				f.duoRepo.SeedInvite(&domain.DuoInvite{
					ID:            "inv-1",
					PrimaryUserID: "alice",
					Code:          "STALE",
					Status:        domain.InviteStatusPending,
					ExpiresAt:     time.Now().UTC().Add(-time.Hour),
				})
				return "STALE"
			},
			errorType: domain.ErrInviteExpired,
		},
		{
			name:   "unknown code",
			userID: "bob",
			setup: func(f *duoFixture) string {
				f.configRepo.Seed(testConfig("bob"))
				return "NOPE"
			},
			errorType: domain.ErrInviteNotFound,
		},
		{
			name:   "secondary already linked",
			userID: "bob",
			setup: func(f *duoFixture) string {
				f.configRepo.Seed(testConfig("alice"))
				f.configRepo.Seed(testConfig("bob"))
				f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "carol", SecondaryUserID: "bob"})
				invite, _ := f.uc.CreateInvite(context.Background(), "alice")
				return invite.Code
			},
			errorType: domain.ErrAlreadyLinked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDuoFixture()
			code := tt.setup(f)

			_, err := f.uc.AcceptInvite(context.Background(), tt.userID, code)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestDuoUseCase_SaveConfigPropagation(t *testing.T) {
	f := newDuoFixture()
	ctx := context.Background()

	primary := testConfig("alice")
	primary.SplitRatio = "2:1"
	f.configRepo.Seed(primary)

	secondary := testConfig("bob")
	secondary.SyncMarker = "[bob-synced]"
	f.configRepo.Seed(secondary)

	f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "alice", SecondaryUserID: "bob"})

	primary.CurrencyCode = "GBP"
	result, err := f.uc.SaveConfig(ctx, primary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CurrencySynced {
		t.Error("expected currencySynced when a secondary was updated")
	}

	got, _ := f.configRepo.GetByUserID(ctx, "bob")
	if got.CurrencyCode != "GBP" {
		t.Errorf("expected currency propagated verbatim, got %q", got.CurrencyCode)
	}
	if got.SplitRatio != "1:2" {
		t.Errorf("expected reversed ratio 1:2, got %q", got.SplitRatio)
	}
}

func TestDuoUseCase_SaveConfigSecondaryDoesNotPropagate(t *testing.T) {
	f := newDuoFixture()
	ctx := context.Background()

	primary := testConfig("alice")
	f.configRepo.Seed(primary)
	secondary := testConfig("bob")
	secondary.SyncMarker = "[bob-synced]"
	f.configRepo.Seed(secondary)
	f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "alice", SecondaryUserID: "bob"})

	secondary.PayeeMode = domain.PayeeModeCustom
	result, err := f.uc.SaveConfig(ctx, secondary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CurrencySynced {
		t.Error("secondary saves must not touch the primary")
	}

	got, _ := f.configRepo.GetByUserID(ctx, "alice")
	if got.CurrencyCode != "USD" || got.SplitRatio != "1:1" {
		t.Errorf("primary shared fields changed by secondary save: %s %s",
			got.CurrencyCode, got.SplitRatio)
	}
}

func TestDuoUseCase_SaveConfigSecondarySharedFieldsRemirrored(t *testing.T) {
	f := newDuoFixture()
	ctx := context.Background()

	primary := testConfig("alice")
	primary.SplitRatio = "2:1"
	f.configRepo.Seed(primary)

	secondary := testConfig("bob")
	secondary.SyncMarker = "[bob-synced]"
	secondary.SplitRatio = "1:2"
	f.configRepo.Seed(secondary)

	f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "alice", SecondaryUserID: "bob"})

	attempt := testConfig("bob")
	attempt.SyncMarker = "[bob-synced]"
	attempt.CurrencyCode = "EUR"
	attempt.SplitRatio = "5:1"
	attempt.SplitGroupID = "group-rogue"
	result, err := f.uc.SaveConfig(ctx, attempt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CurrencySynced {
		t.Error("expected currencySynced when shared fields were rewritten")
	}

	got, _ := f.configRepo.GetByUserID(ctx, "bob")
	if got.CurrencyCode != "USD" {
		t.Errorf("expected currency mirrored from primary, got %q", got.CurrencyCode)
	}
	if got.SplitRatio != "1:2" {
		t.Errorf("expected reversal of primary ratio 1:2, got %q", got.SplitRatio)
	}
	if got.SplitGroupID != "group-1" {
		t.Errorf("expected group mirrored from primary, got %q", got.SplitGroupID)
	}

	prim, _ := f.configRepo.GetByUserID(ctx, "alice")
	if prim.CurrencyCode != "USD" || prim.SplitRatio != "2:1" {
		t.Errorf("primary mutated by secondary save: %s %s",
			prim.CurrencyCode, prim.SplitRatio)
	}
}

func TestDuoUseCase_SaveConfigGroupReuse(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*duoFixture) *domain.UserSyncConfig
		errorType error
	}{
		{
			name: "group of linked partner allowed",
			setup: func(f *duoFixture) *domain.UserSyncConfig {
				partner := testConfig("alice")
				f.configRepo.Seed(partner)
				f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "alice", SecondaryUserID: "bob"})
				cfg := testConfig("bob")
				cfg.SyncMarker = "[bob-synced]"
				return cfg
			},
		},
		{
			name: "group of unrelated solo user rejected",
			setup: func(f *duoFixture) *domain.UserSyncConfig {
				f.configRepo.Seed(testConfig("carol"))
				cfg := testConfig("bob")
				return cfg
			},
			errorType: domain.ErrGroupInUseSolo,
		},
		{
			name: "group of unrelated dual user rejected",
			setup: func(f *duoFixture) *domain.UserSyncConfig {
				f.configRepo.Seed(testConfig("carol"))
				f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "carol", SecondaryUserID: "dave"})
				cfg := testConfig("bob")
				return cfg
			},
			errorType: domain.ErrGroupInUseDual,
		},
		{
			name: "group of inviting solo user allowed",
			setup: func(f *duoFixture) *domain.UserSyncConfig {
				f.configRepo.Seed(testConfig("carol"))
				f.duoRepo.SeedInvite(&domain.DuoInvite{
					ID:            "inv-1",
					PrimaryUserID: "carol",
					Code:          "OPEN",
					Status:        domain.InviteStatusPending,
					ExpiresAt:     time.Now().UTC().Add(time.Hour),
				})
				cfg := testConfig("bob")
				return cfg
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDuoFixture()
			cfg := tt.setup(f)

			_, err := f.uc.SaveConfig(context.Background(), cfg)
			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Errorf("expected %v, got %v", tt.errorType, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDuoUseCase_Unlink(t *testing.T) {
	f := newDuoFixture()
	ctx := context.Background()

	f.configRepo.Seed(testConfig("alice"))
	secondary := testConfig("bob")
	secondary.SyncMarker = "[bob-synced]"
	f.configRepo.Seed(secondary)
	f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "alice", SecondaryUserID: "bob"})
	f.duoRepo.SeedInvite(&domain.DuoInvite{
		ID:            "inv-1",
		PrimaryUserID: "alice",
		Code:          "OPEN",
		Status:        domain.InviteStatusPending,
		ExpiresAt:     time.Now().UTC().Add(time.Hour),
	})

	if err := f.uc.Unlink(ctx, "bob", false); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}

	if err := f.uc.Unlink(ctx, "bob", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if links := f.duoRepo.Links(); len(links) != 0 {
		t.Errorf("expected link removed, got %v", links)
	}

	got, _ := f.configRepo.GetByUserID(ctx, "bob")
	if got.SplitGroupID != "" || got.CurrencyCode != "" || got.SplitRatio != "" {
		t.Error("expected shared fields cleared on unlink")
	}
	if got.SyncMarker != "[bob-synced]" {
		t.Error("expected personal marker retained on unlink")
	}

	if open, _ := f.duoRepo.HasOpenInvite(ctx, "alice"); open {
		t.Error("expected primary's pending invites expired")
	}
}

func TestDuoUseCase_UnlinkNotLinked(t *testing.T) {
	f := newDuoFixture()
	f.configRepo.Seed(testConfig("alice"))

	if err := f.uc.Unlink(context.Background(), "alice", true); !errors.Is(err, domain.ErrNotLinked) {
		t.Errorf("expected ErrNotLinked, got %v", err)
	}
}

func TestDuoUseCase_Status(t *testing.T) {
	f := newDuoFixture()
	ctx := context.Background()
	f.duoRepo.SeedLink(&domain.DuoLink{PrimaryUserID: "alice", SecondaryUserID: "bob", LinkedAt: time.Now().UTC()})

	status, err := f.uc.Status(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Mode != domain.ModeDualPrimary || status.PartnerUserID != "bob" {
		t.Errorf("unexpected status %+v", status)
	}

	status, _ = f.uc.Status(ctx, "bob")
	if status.Mode != domain.ModeDualSecondary || status.PartnerUserID != "alice" {
		t.Errorf("unexpected status %+v", status)
	}

	status, _ = f.uc.Status(ctx, "carol")
	if status.Mode != domain.ModeSolo {
		t.Errorf("expected solo, got %+v", status)
	}
}
