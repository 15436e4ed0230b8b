package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/infrastructure/metrics"
)

// DuoUseCase resolves the linked-account lifecycle: config saves with
// partner propagation, invites, linking and unlinking.
type DuoUseCase struct {
	txManager  TransactionManager
	configRepo ConfigRepository
	duoRepo    DuoRepository
	idGen      IDGenerator
	inviteTTL  time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDuoUseCase creates a new DuoUseCase. metrics may be nil.
func NewDuoUseCase(
	txManager TransactionManager,
	configRepo ConfigRepository,
	duoRepo DuoRepository,
	idGen IDGenerator,
	inviteTTL time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *DuoUseCase {
	return &DuoUseCase{
		txManager:  txManager,
		configRepo: configRepo,
		duoRepo:    duoRepo,
		idGen:      idGen,
		inviteTTL:  inviteTTL,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SaveConfigResult reports a config save plus whether a linked
// partner's shared fields were overwritten along with it.
type SaveConfigResult struct {
	Config         *domain.UserSyncConfig
	CurrencySynced bool
}

// SaveConfig validates and persists a user's configuration. When the
// user has a linked partner, the shared fields are checked for
// conflicts and the partner's currency and reversed ratio are written
// in the same transaction.
func (uc *DuoUseCase) SaveConfig(ctx context.Context, cfg *domain.UserSyncConfig) (*SaveConfigResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	link, err := uc.duoRepo.GetLinkByUser(ctx, cfg.UserID)
	if err != nil {
		return nil, err
	}

	var partner *domain.UserSyncConfig
	if link != nil {
		partner, err = uc.configRepo.GetByUserID(ctx, link.Partner(cfg.UserID))
		if err != nil {
			return nil, err
		}

		if partner.SyncMarker == cfg.SyncMarker {
			return nil, domain.ErrMarkerConflict
		}
	}

	// Secondaries carry mirrored values and cannot push them back:
	// whatever shared fields they submit are replaced with the
	// primary's currency and group and the reversal of its ratio.
	remirrored := false
	if link != nil && link.SecondaryUserID == cfg.UserID {
		reversed, err := domain.ReverseSplitRatio(partner.SplitRatio)
		if err != nil {
			return nil, err
		}

		remirrored = cfg.CurrencyCode != partner.CurrencyCode ||
			cfg.SplitRatio != reversed ||
			cfg.SplitGroupID != partner.SplitGroupID

		cfg.CurrencyCode = partner.CurrencyCode
		cfg.SplitRatio = reversed
		cfg.SplitGroupID = partner.SplitGroupID
	}

	if err := uc.checkGroupReuse(ctx, cfg, link); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cfg.UpdatedAt = uc.now()
	if err := uc.configRepo.Save(ctx, tx, cfg); err != nil {
		return nil, err
	}

	result := &SaveConfigResult{Config: cfg, CurrencySynced: remirrored}

	// Only the primary's shared fields propagate.
	if link != nil && link.PrimaryUserID == cfg.UserID {
		reversed, err := domain.ReverseSplitRatio(cfg.SplitRatio)
		if err != nil {
			return nil, err
		}

		partner.CurrencyCode = cfg.CurrencyCode
		partner.SplitRatio = reversed
		partner.SplitGroupID = cfg.SplitGroupID
		partner.UpdatedAt = uc.now()

		if err := uc.configRepo.Save(ctx, tx, partner); err != nil {
			return nil, err
		}

		result.CurrencySynced = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// checkGroupReuse enforces who may bind an already-claimed split
// group: the caller's own linked partner silently, anyone else not at
// all unless the holder is a dual primary with an open invite.
func (uc *DuoUseCase) checkGroupReuse(ctx context.Context, cfg *domain.UserSyncConfig, link *domain.DuoLink) error {
	if cfg.SplitGroupID == "" {
		return nil
	}

	holder, err := uc.configRepo.GetByGroupID(ctx, cfg.SplitGroupID)
	if err != nil {
		return err
	}
	if holder == nil || holder.UserID == cfg.UserID {
		return nil
	}

	if link != nil && link.Partner(cfg.UserID) == holder.UserID {
		return nil
	}

	holderLink, err := uc.duoRepo.GetLinkByUser(ctx, holder.UserID)
	if err != nil {
		return err
	}

	if holderLink != nil {
		return domain.ErrGroupInUseDual
	}

	open, err := uc.duoRepo.HasOpenInvite(ctx, holder.UserID)
	if err != nil {
		return err
	}
	if open {
		// The holder is inviting a partner; joining through the invite
		// flow is the path, binding the group directly waits for it.
		return nil
	}

	return domain.ErrGroupInUseSolo
}

// CreateInvite issues an invite code for the caller to link a
// secondary. One open invite at a time; already-linked users cannot
// invite.
func (uc *DuoUseCase) CreateInvite(ctx context.Context, userID string) (*domain.DuoInvite, error) {
	link, err := uc.duoRepo.GetLinkByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		return nil, domain.ErrAlreadyLinked
	}

	open, err := uc.duoRepo.HasOpenInvite(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, domain.ErrAlreadyLinked
	}

	now := uc.now()
	invite := &domain.DuoInvite{
		ID:            uc.idGen.Generate(),
		PrimaryUserID: userID,
		Code:          newInviteCode(),
		Status:        domain.InviteStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(uc.inviteTTL),
	}

	if err := uc.duoRepo.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("user_id", userID).Str("invite_id", invite.ID).Msg("duo invite created")
	return invite, nil
}

// AcceptInvite links the caller as the secondary of the invite's
// primary. The caller adopts the primary's group and currency, and the
// reversed ratio; the caller's marker must differ from the primary's.
func (uc *DuoUseCase) AcceptInvite(ctx context.Context, userID, code string) (*domain.DuoLink, error) {
	invite, err := uc.duoRepo.GetInviteByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, domain.ErrInviteNotFound
	}

	now := uc.now()
	if !invite.Open(now) {
		return nil, domain.ErrInviteExpired
	}

	if invite.PrimaryUserID == userID {
		return nil, domain.ErrSelfLink
	}

	for _, id := range []string{userID, invite.PrimaryUserID} {
		existing, err := uc.duoRepo.GetLinkByUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrAlreadyLinked
		}
	}

	primary, err := uc.configRepo.GetByUserID(ctx, invite.PrimaryUserID)
	if err != nil {
		return nil, err
	}

	secondary, err := uc.configRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if secondary.SyncMarker == primary.SyncMarker {
		return nil, domain.ErrMarkerConflict
	}

	reversed, err := domain.ReverseSplitRatio(primary.SplitRatio)
	if err != nil {
		return nil, err
	}

	secondary.SplitGroupID = primary.SplitGroupID
	secondary.CurrencyCode = primary.CurrencyCode
	secondary.SplitRatio = reversed
	secondary.UpdatedAt = now

	link := &domain.DuoLink{
		PrimaryUserID:   invite.PrimaryUserID,
		SecondaryUserID: userID,
		LinkedAt:        now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.duoRepo.CreateLink(ctx, tx, link); err != nil {
		return nil, err
	}

	if err := uc.duoRepo.MarkInviteAccepted(ctx, tx, invite.ID); err != nil {
		return nil, err
	}

	if err := uc.configRepo.Save(ctx, tx, secondary); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DuoLinks.Inc()
	}

	uc.logger.Info().
		Str("primary", link.PrimaryUserID).
		Str("secondary", link.SecondaryUserID).
		Msg("duo link established")

	return link, nil
}

// Unlink dissolves the caller's duo link. It requires an explicit
// confirm flag, clears the shared fields on the caller's side, keeps
// personal fields such as the marker, and expires the primary's
// pending invites.
func (uc *DuoUseCase) Unlink(ctx context.Context, userID string, confirm bool) error {
	link, err := uc.duoRepo.GetLinkByUser(ctx, userID)
	if err != nil {
		return err
	}
	if link == nil {
		return domain.ErrNotLinked
	}

	if !confirm {
		return domain.ErrConfirmationRequired
	}

	cfg, err := uc.configRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	cfg.ClearSharedFields()
	cfg.UpdatedAt = uc.now()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.duoRepo.DeleteLink(ctx, tx, link); err != nil {
		return err
	}

	if err := uc.configRepo.Save(ctx, tx, cfg); err != nil {
		return err
	}

	if err := uc.duoRepo.ExpireInvites(ctx, tx, link.PrimaryUserID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.DuoUnlinks.Inc()
	}

	uc.logger.Info().
		Str("primary", link.PrimaryUserID).
		Str("secondary", link.SecondaryUserID).
		Msg("duo link dissolved")

	return nil
}

// DuoStatus describes the caller's linking state.
type DuoStatus struct {
	Mode          domain.DuoMode
	PartnerUserID string
	LinkedAt      *time.Time
}

// Status reports the caller's duo mode and partner, if any.
func (uc *DuoUseCase) Status(ctx context.Context, userID string) (*DuoStatus, error) {
	link, err := uc.duoRepo.GetLinkByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if link == nil {
		open, err := uc.duoRepo.HasOpenInvite(ctx, userID)
		if err != nil {
			return nil, err
		}
		if open {
			return &DuoStatus{Mode: domain.ModeDualPrimary}, nil
		}
		return &DuoStatus{Mode: domain.ModeSolo}, nil
	}

	status := &DuoStatus{
		PartnerUserID: link.Partner(userID),
		LinkedAt:      &link.LinkedAt,
	}
	if link.PrimaryUserID == userID {
		status.Mode = domain.ModeDualPrimary
	} else {
		status.Mode = domain.ModeDualSecondary
	}

	return status, nil
}

var inviteEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newInviteCode returns a short random code safe to share in chat.
func newInviteCode() string {
	var b [10]byte
	_, _ = rand.Read(b[:])
	return inviteEncoding.EncodeToString(b[:])
}
