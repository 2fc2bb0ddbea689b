// AngelaMos | 2026
// quest_test.go

package quest_test

import (
	"testing"
	"time"

	"github.com/angelamos/blux-portal/internal/quest"
)

func TestEvaluateSlot(t *testing.T) {
	engine := quest.Engine{AdsRequired: 15, DailyLimit: 5}

	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.Local)
	earlierToday := now.Add(-3 * time.Hour)
	yesterday := now.AddDate(0, 0, -1)
	lateLastNight := time.Date(2026, time.March, 9, 23, 59, 0, 0, time.Local)

	tests := []struct {
		name          string
		lastCompleted *time.Time
		dailyCount    int
		wantEligible  bool
		wantReset     bool
	}{
		{
			name:          "never completed",
			lastCompleted: nil,
			dailyCount:    0,
			wantEligible:  true,
		},
		{
			name:          "same day under limit",
			lastCompleted: &earlierToday,
			dailyCount:    4,
			wantEligible:  true,
		},
		{
			name:          "same day at limit",
			lastCompleted: &earlierToday,
			dailyCount:    5,
			wantEligible:  false,
		},
		{
			name:          "previous day resets",
			lastCompleted: &yesterday,
			dailyCount:    5,
			wantEligible:  true,
			wantReset:     true,
		},
		{
			name:          "calendar boundary not elapsed time",
			lastCompleted: &lateLastNight,
			dailyCount:    5,
			wantEligible:  true,
			wantReset:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := engine.EvaluateSlot(tt.lastCompleted, tt.dailyCount, now)
			if slot.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %v, want %v", slot.Eligible, tt.wantEligible)
			}
			if slot.Reset != tt.wantReset {
				t.Errorf("Reset = %v, want %v", slot.Reset, tt.wantReset)
			}
		})
	}
}

func TestAwardCrossing(t *testing.T) {
	engine := quest.Engine{AdsRequired: 15, DailyLimit: 5}

	tests := []struct {
		name string
		prev quest.Progress
		next quest.Progress
		want bool
	}{
		{
			name: "ads cross while game done",
			prev: quest.Progress{GameCompleted: true, AdsWatched: 14},
			next: quest.Progress{GameCompleted: true, AdsWatched: 15},
			want: true,
		},
		{
			name: "game completes with ads at threshold",
			prev: quest.Progress{GameCompleted: false, AdsWatched: 15},
			next: quest.Progress{GameCompleted: true, AdsWatched: 15},
			want: true,
		},
		{
			name: "ads reach threshold without game",
			prev: quest.Progress{GameCompleted: false, AdsWatched: 14},
			next: quest.Progress{GameCompleted: false, AdsWatched: 15},
			want: false,
		},
		{
			name: "game completes with ads short",
			prev: quest.Progress{GameCompleted: false, AdsWatched: 3},
			next: quest.Progress{GameCompleted: true, AdsWatched: 3},
			want: false,
		},
		{
			name: "resubmitting crossed state",
			prev: quest.Progress{GameCompleted: true, AdsWatched: 15},
			next: quest.Progress{GameCompleted: true, AdsWatched: 15},
			want: false,
		},
		{
			name: "ads keep climbing past threshold",
			prev: quest.Progress{GameCompleted: true, AdsWatched: 15},
			next: quest.Progress{GameCompleted: true, AdsWatched: 20},
			want: false,
		},
		{
			name: "jump far past threshold still one crossing",
			prev: quest.Progress{GameCompleted: true, AdsWatched: 2},
			next: quest.Progress{GameCompleted: true, AdsWatched: 40},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.AwardCrossing(tt.prev, tt.next); got != tt.want {
				t.Errorf("AwardCrossing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameCalendarDay(t *testing.T) {
	a := time.Date(2026, time.March, 9, 23, 59, 59, 0, time.Local)
	b := time.Date(2026, time.March, 10, 0, 0, 1, 0, time.Local)

	if quest.SameCalendarDay(a, b) {
		t.Error("instants two seconds apart across midnight share no calendar day")
	}

	c := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)
	d := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.Local)

	if !quest.SameCalendarDay(c, d) {
		t.Error("instants on the same date must compare equal")
	}
}
