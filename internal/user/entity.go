// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is the single persistent entity: one ledger record per portal
// account, carrying quest progress, accrued tokens and the one outstanding
// redemption code.
type User struct {
	ID                   int64      `db:"id"`
	Username             string     `db:"username"`
	PasswordHash         string     `db:"password_hash"`
	Role                 string     `db:"role"`
	GameCompleted        bool       `db:"game_completed"`
	AdsWatched           int        `db:"ads_watched"`
	TokenCount           int        `db:"token_count"`
	RedemptionCode       *string    `db:"redemption_code"`
	CodeRedeemed         bool       `db:"code_redeemed"`
	LastQuestCompletedAt *time.Time `db:"last_quest_completed_at"`
	DailyQuestCount      int        `db:"daily_quest_count"`
	IsVIP                bool       `db:"is_vip"`
	VIPExpiresAt         *time.Time `db:"vip_expires_at"`
	CreatedAt            time.Time  `db:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin || role == RoleOwner
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// RefreshVIP lazily expires VIP status and reports whether the user is VIP
// at the given instant. Mutating here keeps stored state consistent with
// what callers act on; there is no background expiry job.
func (u *User) RefreshVIP(now time.Time) bool {
	if u.IsVIP && u.VIPExpiresAt != nil && now.After(*u.VIPExpiresAt) {
		u.IsVIP = false
		u.VIPExpiresAt = nil
	}
	return u.IsVIP
}

// HasOutstandingCode reports whether an unredeemed redemption code exists.
// At most one may be live per user.
func (u *User) HasOutstandingCode() bool {
	return u.RedemptionCode != nil && !u.CodeRedeemed
}

// StartCycle resets the per-cycle progress fields for a fresh quest cycle.
func (u *User) StartCycle() {
	u.GameCompleted = false
	u.AdsWatched = 0
}
