// AngelaMos | 2026
// service.go

package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/angelamos/blux-portal/internal/core"
	"github.com/angelamos/blux-portal/internal/user"
)

type Window string

const (
	WindowDay   Window = "day"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowDay, WindowMonth, WindowYear:
		return Window(s), nil
	default:
		return "", fmt.Errorf(
			"unknown statistics window %q: %w",
			s,
			core.ErrInvalidInput,
		)
	}
}

// Bounds returns the half-open [from, to) interval covering the window that
// contains now, in server-local calendar terms.
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	now = now.Local()
	year, month, day := now.Date()

	switch w {
	case WindowMonth:
		from := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 1, 0)
	case WindowYear:
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(1, 0, 0)
	default:
		from := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 0, 1)
	}
}

type ActivityReport struct {
	Window        string    `json:"window"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	ActiveUsers   int       `json:"active_users"`
	AdsWatched    int       `json:"ads_watched"`
	TokensEarned  int       `json:"tokens_earned"`
	CodesRedeemed int       `json:"codes_redeemed"`
}

type RegistrationReport struct {
	Window        string    `json:"window"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Registrations int       `json:"registrations"`
}

// Service computes read-side rollups over the ledger. It holds no state of
// its own and never mutates a record; full scans are fine at this scale.
type Service struct {
	repo user.Repository
}

func NewService(repo user.Repository) *Service {
	return &Service{repo: repo}
}

// Activity scans users whose latest quest completion falls inside the
// window. Tokens earned counts award events recorded in the window, the
// same definition for every window size.
func (s *Service) Activity(
	ctx context.Context,
	window Window,
	now time.Time,
) (*ActivityReport, error) {
	from, to := window.Bounds(now)

	users, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("activity rollup: %w", err)
	}

	report := &ActivityReport{
		Window: string(window),
		From:   from,
		To:     to,
	}

	for i := range users {
		last := users[i].LastQuestCompletedAt
		if last == nil || last.Before(from) || !last.Before(to) {
			continue
		}

		report.ActiveUsers++
		report.AdsWatched += users[i].AdsWatched
		if users[i].CodeRedeemed {
			report.CodesRedeemed++
		}
	}

	earned, err := s.repo.AwardsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("activity rollup: %w", err)
	}
	report.TokensEarned = earned

	return report, nil
}

// Registrations buckets account creations by the window containing now.
func (s *Service) Registrations(
	ctx context.Context,
	window Window,
	now time.Time,
) (*RegistrationReport, error) {
	from, to := window.Bounds(now)

	count, err := s.repo.CountCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("registration rollup: %w", err)
	}

	return &RegistrationReport{
		Window:        string(window),
		From:          from,
		To:            to,
		Registrations: count,
	}, nil
}
