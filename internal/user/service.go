// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelamos/blux-portal/internal/core"
	"github.com/angelamos/blux-portal/internal/middleware"
	"github.com/angelamos/blux-portal/internal/platform"
	"github.com/angelamos/blux-portal/internal/quest"
)

type Service struct {
	repo        Repository
	platform    platform.Client
	engine      quest.Engine
	locks       *Locker
	vipDuration time.Duration
}

func NewService(
	repo Repository,
	platformClient platform.Client,
	engine quest.Engine,
	locks *Locker,
	vipDuration time.Duration,
) *Service {
	return &Service{
		repo:        repo,
		platform:    platformClient,
		engine:      engine,
		locks:       locks,
		vipDuration: vipDuration,
	}
}

// Register creates a ledger record after the game platform confirms the
// username names a real player. The identity check is blocking: an
// unreachable platform fails registration. The gamepass check afterwards is
// best-effort and only ever upgrades the account.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*User, error) {
	valid, err := s.platform.ValidateUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf(
			"register: unknown player identity: %w",
			core.ErrInvalidInput,
		)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	owns, err := s.platform.OwnsGamepass(ctx, req.Username)
	if err != nil {
		slog.Warn("gamepass check failed, skipping VIP grant",
			"username", req.Username,
			"error", err,
		)
		return u, nil
	}

	if owns {
		return s.syncVIP(ctx, req.Username, true)
	}

	return u, nil
}

// Login verifies credentials, re-validates the identity against the
// platform, and opens a fresh quest cycle unless the non-VIP daily cap is
// already exhausted.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, fmt.Errorf("login: %w", core.ErrUnauthorized)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("login: %w", core.ErrUnauthorized)
	}

	stillValid, err := s.platform.ValidateUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !stillValid {
		return nil, fmt.Errorf(
			"login: identity no longer valid: %w",
			core.ErrUnauthorized,
		)
	}

	unlock := s.locks.Lock(req.Username)
	defer unlock()

	u, err = s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	now := time.Now()
	vip := u.RefreshVIP(now)

	slot := s.engine.EvaluateSlot(u.LastQuestCompletedAt, u.DailyQuestCount, now)
	if slot.Reset {
		u.DailyQuestCount = 0
	}

	if vip || slot.Eligible {
		u.StartCycle()
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProgress merges a partial progress update into the record and
// applies the token accrual rule: crossing the completion threshold awards
// exactly one token, and only if the daily slot allows it. Progress fields
// persist either way.
func (s *Service) UpdateProgress(
	ctx context.Context,
	username string,
	req ProgressUpdateRequest,
) (*User, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	prev := quest.Progress{
		GameCompleted: u.GameCompleted,
		AdsWatched:    u.AdsWatched,
	}

	if req.GameCompleted != nil {
		u.GameCompleted = *req.GameCompleted
	}
	if req.AdsWatched != nil {
		u.AdsWatched = *req.AdsWatched
	}

	next := quest.Progress{
		GameCompleted: u.GameCompleted,
		AdsWatched:    u.AdsWatched,
	}

	if s.engine.AwardCrossing(prev, next) {
		now := time.Now()
		vip := u.RefreshVIP(now)

		slot := s.engine.EvaluateSlot(
			u.LastQuestCompletedAt,
			u.DailyQuestCount,
			now,
		)
		if slot.Reset {
			u.DailyQuestCount = 0
		}

		if vip || slot.Eligible {
			u.TokenCount++
			u.DailyQuestCount++
			completedAt := now
			u.LastQuestCompletedAt = &completedAt

			if err := s.repo.SaveAward(ctx, u, now); err != nil {
				return nil, fmt.Errorf("update progress: %w", err)
			}

			return u, nil
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	return u, nil
}

// RestartQuest explicitly opens a new cycle. Non-VIP users at the daily cap
// are refused until the calendar date advances.
func (s *Service) RestartQuest(
	ctx context.Context,
	username string,
) (*User, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	vip := u.RefreshVIP(now)

	slot := s.engine.EvaluateSlot(u.LastQuestCompletedAt, u.DailyQuestCount, now)
	if slot.Reset {
		u.DailyQuestCount = 0
	}

	if !vip && !slot.Eligible {
		return nil, fmt.Errorf("restart quest: %w", core.ErrDailyLimitReached)
	}

	u.StartCycle()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("restart quest: %w", err)
	}

	return u, nil
}

// CheckVIP re-syncs the VIP flag from the platform's gamepass ownership. An
// unreachable platform is non-fatal: the stored state is returned unchanged.
func (s *Service) CheckVIP(ctx context.Context, username string) (*User, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	}

	owns, err := s.platform.OwnsGamepass(ctx, username)
	if err != nil {
		slog.Warn("gamepass check failed, keeping stored VIP state",
			"username", username,
			"error", err,
		)
		return s.repo.GetByUsername(ctx, username)
	}

	return s.syncVIP(ctx, username, owns)
}

// syncVIP applies an ownership answer under the user's lock. Granting is
// idempotent: an already-active VIP keeps its expiry instead of being
// extended on every check.
func (s *Service) syncVIP(
	ctx context.Context,
	username string,
	owns bool,
) (*User, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	active := u.RefreshVIP(now)

	switch {
	case owns && !active:
		expiresAt := now.Add(s.vipDuration)
		u.IsVIP = true
		u.VIPExpiresAt = &expiresAt
	case !owns:
		u.IsVIP = false
		u.VIPExpiresAt = nil
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("sync vip: %w", err)
	}

	return u, nil
}

// VerifyCredentials backs the credential gate in front of the admin
// surface.
func (s *Service) VerifyCredentials(
	ctx context.Context,
	username, password string,
) (*middleware.Identity, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, fmt.Errorf("verify credentials: %w", core.ErrUnauthorized)
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(password, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("verify credentials: %w", core.ErrUnauthorized)
	}

	return &middleware.Identity{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}, nil
}

// SeedOwner makes sure the configured owner account exists with the owner
// role. Registration can never produce an owner, so this runs at startup.
func (s *Service) SeedOwner(
	ctx context.Context,
	username, password string,
) error {
	if username == "" {
		return nil
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		if u.IsOwner() {
			return nil
		}
		u.Role = RoleOwner
		if err := s.repo.Update(ctx, u); err != nil {
			return fmt.Errorf("seed owner: %w", err)
		}
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("seed owner: %w", err)
	}

	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}

	owner := &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         RoleOwner,
	}

	if err := s.repo.Create(ctx, owner); err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}

	return nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// AdminUpdateUser applies role and VIP edits. Only an owner may hand out
// the owner role or touch an existing owner's role; admins stop at admin.
func (s *Service) AdminUpdateUser(
	ctx context.Context,
	actorRole, username string,
	req AdminUpdateUserRequest,
) (*User, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if !ValidRole(*req.Role) {
			return nil, fmt.Errorf(
				"update role: invalid role %q: %w",
				*req.Role,
				core.ErrInvalidInput,
			)
		}

		if (*req.Role == RoleOwner || u.IsOwner()) && actorRole != RoleOwner {
			return nil, fmt.Errorf(
				"update role: owner role changes require an owner: %w",
				core.ErrForbidden,
			)
		}

		u.Role = *req.Role
	}

	if req.IsVIP != nil {
		u.IsVIP = *req.IsVIP
		if !u.IsVIP {
			u.VIPExpiresAt = nil
		} else if u.VIPExpiresAt == nil && req.VIPExpiresAt == nil {
			expiresAt := time.Now().Add(s.vipDuration)
			u.VIPExpiresAt = &expiresAt
		}
	}

	if req.VIPExpiresAt != nil {
		u.VIPExpiresAt = req.VIPExpiresAt
	}

	if req.TokenCount != nil {
		u.TokenCount = *req.TokenCount
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("admin update user: %w", err)
	}

	return u, nil
}

var _ middleware.CredentialVerifier = (*Service)(nil)
