// AngelaMos | 2026
// service.go

package reward

import (
	"context"
	"fmt"
	"time"

	"github.com/angelamos/blux-portal/internal/core"
	"github.com/angelamos/blux-portal/internal/user"
)

// InsufficientTokensError carries how many more accrual tokens the user
// needs before a code can be generated.
type InsufficientTokensError struct {
	Needed int
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient tokens: %d more needed", e.Needed)
}

// Redemption is the outcome of a successful code generation or refetch.
type Redemption struct {
	Code            string
	RemainingTokens int
}

// Service converts accrued tokens into one-time redemption codes. Cost is
// VIP-aware; at most one unredeemed code may exist per user, and a second
// generation call while one is outstanding returns it without charging
// again.
type Service struct {
	repo    user.Repository
	locks   *user.Locker
	gen     Generator
	cost    int
	vipCost int
}

func NewService(
	repo user.Repository,
	locks *user.Locker,
	gen Generator,
	cost, vipCost int,
) *Service {
	return &Service{
		repo:    repo,
		locks:   locks,
		gen:     gen,
		cost:    cost,
		vipCost: vipCost,
	}
}

// GenerateCode deducts the VIP-aware cost and stores a fresh code, all
// under the user's lock so the balance check and the deduction cannot be
// split by a concurrent request.
func (s *Service) GenerateCode(
	ctx context.Context,
	username string,
) (*Redemption, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	vip := u.RefreshVIP(now)

	if u.HasOutstandingCode() {
		return &Redemption{
			Code:            *u.RedemptionCode,
			RemainingTokens: u.TokenCount,
		}, nil
	}

	cost := s.cost
	if vip {
		cost = s.vipCost
	}

	if u.TokenCount < cost {
		return nil, &InsufficientTokensError{Needed: cost - u.TokenCount}
	}

	code, err := s.gen.NewCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	u.RedemptionCode = &code
	u.CodeRedeemed = false
	u.TokenCount -= cost

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	return &Redemption{Code: code, RemainingTokens: u.TokenCount}, nil
}

// Verify consumes an outstanding code. One-time use is enforced here, not
// at generation: a code that was already consumed, or that does not match
// the stored one, is rejected.
func (s *Service) Verify(
	ctx context.Context,
	username, code string,
) (*user.User, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if u.RedemptionCode == nil || *u.RedemptionCode != code || u.CodeRedeemed {
		return nil, fmt.Errorf("verify code: %w", core.ErrCodeInvalid)
	}

	u.CodeRedeemed = true

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("verify code: %w", err)
	}

	return u, nil
}
