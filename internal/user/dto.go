// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password" validate:"required,max=128"`
}

// ProgressUpdateRequest is a partial update; absent fields keep their stored
// values, which is what makes threshold-crossing detection possible.
type ProgressUpdateRequest struct {
	GameCompleted *bool `json:"game_completed,omitempty"`
	AdsWatched    *int  `json:"ads_watched,omitempty"  validate:"omitempty,gte=0,lte=1000"`
}

type AdminUpdateUserRequest struct {
	Role         *string    `json:"role,omitempty"           validate:"omitempty,oneof=user admin owner"`
	IsVIP        *bool      `json:"is_vip,omitempty"`
	VIPExpiresAt *time.Time `json:"vip_expires_at,omitempty"`
	TokenCount   *int       `json:"token_count,omitempty"    validate:"omitempty,gte=0"`
}

type UserResponse struct {
	ID                   int64      `json:"id"`
	Username             string     `json:"username"`
	Role                 string     `json:"role"`
	GameCompleted        bool       `json:"game_completed"`
	AdsWatched           int        `json:"ads_watched"`
	TokenCount           int        `json:"token_count"`
	RedemptionCode       *string    `json:"redemption_code,omitempty"`
	CodeRedeemed         bool       `json:"code_redeemed"`
	LastQuestCompletedAt *time.Time `json:"last_quest_completed_at,omitempty"`
	DailyQuestCount      int        `json:"daily_quest_count"`
	IsVIP                bool       `json:"is_vip"`
	VIPExpiresAt         *time.Time `json:"vip_expires_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	VIP      *bool  `json:"vip"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                   u.ID,
		Username:             u.Username,
		Role:                 u.Role,
		GameCompleted:        u.GameCompleted,
		AdsWatched:           u.AdsWatched,
		TokenCount:           u.TokenCount,
		RedemptionCode:       u.RedemptionCode,
		CodeRedeemed:         u.CodeRedeemed,
		LastQuestCompletedAt: u.LastQuestCompletedAt,
		DailyQuestCount:      u.DailyQuestCount,
		IsVIP:                u.IsVIP,
		VIPExpiresAt:         u.VIPExpiresAt,
		CreatedAt:            u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
