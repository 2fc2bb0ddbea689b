// AngelaMos | 2026
// service_test.go

package reward

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/angelamos/blux-portal/internal/core"
	"github.com/angelamos/blux-portal/internal/user"
)

var codePattern = regexp.MustCompile(`^BLUX-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func newTestService(t *testing.T) (*Service, user.Repository) {
	t.Helper()
	repo := user.NewMemoryRepository()
	svc := NewService(repo, user.NewLocker(), Generator{Prefix: "BLUX"}, 10, 1)
	return svc, repo
}

func seedUser(t *testing.T, repo user.Repository, u *user.User) *user.User {
	t.Helper()
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create(%s) error = %v", u.Username, err)
	}
	return u
}

func TestGeneratorCodeFormat(t *testing.T) {
	gen := Generator{Prefix: "BLUX"}

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := gen.NewCode()
		if err != nil {
			t.Fatalf("NewCode() error = %v", err)
		}
		if !codePattern.MatchString(code) {
			t.Fatalf("NewCode() = %q, want match for %s", code, codePattern)
		}
		seen[code] = true
	}

	if len(seen) < 50 {
		t.Errorf("generated %d distinct codes out of 50", len(seen))
	}
}

func TestGenerateCodeDeductsCost(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedUser(t, repo, &user.User{Username: "alice", TokenCount: 10})

	red, err := svc.GenerateCode(ctx, "alice")
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if !codePattern.MatchString(red.Code) {
		t.Errorf("Code = %q, want redemption code format", red.Code)
	}
	if red.RemainingTokens != 0 {
		t.Errorf("RemainingTokens = %d, want 0", red.RemainingTokens)
	}

	stored, _ := repo.GetByUsername(ctx, "alice")
	if stored.TokenCount != 0 {
		t.Errorf("stored TokenCount = %d, want 0", stored.TokenCount)
	}
	if stored.RedemptionCode == nil || *stored.RedemptionCode != red.Code {
		t.Error("stored code does not match the returned one")
	}
	if stored.CodeRedeemed {
		t.Error("fresh code already marked redeemed")
	}
}

func TestGenerateCodeInsufficientTokens(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedUser(t, repo, &user.User{Username: "bob", TokenCount: 3})

	_, err := svc.GenerateCode(ctx, "bob")

	var insufficient *InsufficientTokensError
	if !errors.As(err, &insufficient) {
		t.Fatalf("GenerateCode() error = %v, want InsufficientTokensError", err)
	}
	if insufficient.Needed != 7 {
		t.Errorf("Needed = %d, want 7", insufficient.Needed)
	}

	// The balance is untouched by a refused generation.
	stored, _ := repo.GetByUsername(ctx, "bob")
	if stored.TokenCount != 3 {
		t.Errorf("stored TokenCount = %d, want 3", stored.TokenCount)
	}
}

func TestGenerateCodeVIPCost(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	expiry := time.Now().Add(24 * time.Hour)
	seedUser(t, repo, &user.User{
		Username:     "whale",
		TokenCount:   1,
		IsVIP:        true,
		VIPExpiresAt: &expiry,
	})

	red, err := svc.GenerateCode(ctx, "whale")
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if red.RemainingTokens != 0 {
		t.Errorf("RemainingTokens = %d, want 0", red.RemainingTokens)
	}
}

func TestGenerateCodeExpiredVIPPaysFullCost(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	expired := time.Now().Add(-time.Hour)
	seedUser(t, repo, &user.User{
		Username:     "lapsed",
		TokenCount:   1,
		IsVIP:        true,
		VIPExpiresAt: &expired,
	})

	_, err := svc.GenerateCode(ctx, "lapsed")

	var insufficient *InsufficientTokensError
	if !errors.As(err, &insufficient) {
		t.Fatalf("GenerateCode() error = %v, want InsufficientTokensError", err)
	}
	if insufficient.Needed != 9 {
		t.Errorf("Needed = %d, want 9", insufficient.Needed)
	}
}

func TestGenerateCodeIdempotentWhileOutstanding(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedUser(t, repo, &user.User{Username: "alice", TokenCount: 20})

	first, err := svc.GenerateCode(ctx, "alice")
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}

	second, err := svc.GenerateCode(ctx, "alice")
	if err != nil {
		t.Fatalf("second GenerateCode() error = %v", err)
	}
	if second.Code != first.Code {
		t.Errorf("second call minted new code %q, want %q", second.Code, first.Code)
	}
	if second.RemainingTokens != first.RemainingTokens {
		t.Errorf("second call charged again: %d tokens, want %d",
			second.RemainingTokens, first.RemainingTokens)
	}

	// After the code is consumed a new one can be bought.
	if _, err := svc.Verify(ctx, "alice", first.Code); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	third, err := svc.GenerateCode(ctx, "alice")
	if err != nil {
		t.Fatalf("third GenerateCode() error = %v", err)
	}
	if third.Code == first.Code {
		t.Error("post-redemption generation reused the consumed code")
	}
	if third.RemainingTokens != 0 {
		t.Errorf("RemainingTokens = %d, want 0", third.RemainingTokens)
	}
}

func TestVerifyOneTimeUse(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedUser(t, repo, &user.User{Username: "alice", TokenCount: 10})

	red, err := svc.GenerateCode(ctx, "alice")
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}

	u, err := svc.Verify(ctx, "alice", red.Code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !u.CodeRedeemed {
		t.Error("Verify() did not mark the code redeemed")
	}

	_, err = svc.Verify(ctx, "alice", red.Code)
	if !errors.Is(err, core.ErrCodeInvalid) {
		t.Errorf("replayed Verify() error = %v, want ErrCodeInvalid", err)
	}
}

func TestVerifyRejectsMismatch(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seedUser(t, repo, &user.User{Username: "alice", TokenCount: 10})

	if _, err := svc.GenerateCode(ctx, "alice"); err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}

	_, err := svc.Verify(ctx, "alice", "BLUX-FAKE-FAKE-FAKE")
	if !errors.Is(err, core.ErrCodeInvalid) {
		t.Errorf("Verify(mismatch) error = %v, want ErrCodeInvalid", err)
	}

	seedUser(t, repo, &user.User{Username: "bob", TokenCount: 0})
	_, err = svc.Verify(ctx, "bob", "BLUX-FAKE-FAKE-FAKE")
	if !errors.Is(err, core.ErrCodeInvalid) {
		t.Errorf("Verify(no code) error = %v, want ErrCodeInvalid", err)
	}

	_, err = svc.Verify(ctx, "nobody", "BLUX-FAKE-FAKE-FAKE")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Verify(unknown user) error = %v, want ErrNotFound", err)
	}
}
