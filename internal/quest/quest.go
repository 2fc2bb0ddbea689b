// AngelaMos | 2026
// quest.go

package quest

import (
	"time"
)

// Engine carries the quota parameters of one quest cycle: how many ads a
// cycle requires and how many completions a calendar day allows.
type Engine struct {
	AdsRequired int
	DailyLimit  int
}

// Slot is the outcome of a daily-slot check. Reset reports that the stored
// daily counter belongs to a previous calendar day and must be zeroed before
// any further accounting.
type Slot struct {
	Eligible bool
	Reset    bool
}

// EvaluateSlot answers whether the daily slot allows another quest
// completion. It does not special-case VIP: callers combine the slot with
// the VIP override, because VIP removes the cap but not the day-boundary
// reset.
func (e Engine) EvaluateSlot(
	lastCompleted *time.Time,
	dailyCount int,
	now time.Time,
) Slot {
	if lastCompleted == nil {
		return Slot{Eligible: true}
	}

	if !SameCalendarDay(*lastCompleted, now) {
		return Slot{Eligible: true, Reset: true}
	}

	return Slot{Eligible: dailyCount < e.DailyLimit}
}

// Progress is the per-cycle state an update transitions between.
type Progress struct {
	GameCompleted bool
	AdsWatched    int
}

// AwardCrossing reports whether moving from prev to next crosses the
// completion threshold. Two mutually exclusive cases can fire, never both:
// the ad counter reaches the requirement while the minigame is already done,
// or the minigame finishes while the ad counter is already at the
// requirement. Re-submitting an already-crossed state does not fire.
func (e Engine) AwardCrossing(prev, next Progress) bool {
	adsCrossed := prev.GameCompleted && next.GameCompleted &&
		prev.AdsWatched < e.AdsRequired &&
		next.AdsWatched >= e.AdsRequired

	gameCrossed := !prev.GameCompleted && next.GameCompleted &&
		next.AdsWatched >= e.AdsRequired

	return adsCrossed || gameCrossed
}

// SameCalendarDay compares two instants by server-local calendar date, not
// by elapsed time.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
