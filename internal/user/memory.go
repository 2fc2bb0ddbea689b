// AngelaMos | 2026
// memory.go

package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelamos/blux-portal/internal/core"
)

const dayBucketFormat = "2006-01-02"

// memoryRepository keeps the ledger in process: a primary index by id and a
// secondary unique index by username, kept consistent under one lock.
// Records are copied on the way in and out so callers never share memory
// with the store.
type memoryRepository struct {
	mu         sync.RWMutex
	seq        int64
	byID       map[int64]*User
	byUsername map[string]int64
	awards     map[string]int
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:       make(map[int64]*User),
		byUsername: make(map[string]int64),
		awards:     make(map[string]int),
	}
}

func (r *memoryRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	r.seq++
	user.ID = r.seq
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byUsername[user.Username] = user.ID

	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	copied := *stored
	return &copied, nil
}

func (r *memoryRepository) GetByUsername(
	_ context.Context,
	username string,
) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}

	copied := *r.byID[id]
	return &copied, nil
}

func (r *memoryRepository) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.updateLocked(user)
}

func (r *memoryRepository) SaveAward(
	_ context.Context,
	user *User,
	day time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.updateLocked(user); err != nil {
		return err
	}

	r.awards[day.Format(dayBucketFormat)]++
	return nil
}

func (r *memoryRepository) updateLocked(user *User) error {
	stored, ok := r.byID[user.ID]
	if !ok {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	// Usernames are immutable: allowing a rename here would orphan the
	// secondary index entry.
	if stored.Username != user.Username {
		return fmt.Errorf(
			"update user: username is immutable: %w",
			core.ErrInvalidInput,
		)
	}

	copied := *user
	copied.CreatedAt = stored.CreatedAt
	r.byID[user.ID] = &copied

	return nil
}

func (r *memoryRepository) List(
	_ context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	r.mu.RLock()
	matched := make([]User, 0, len(r.byID))
	for _, stored := range r.byID {
		if params.Search != "" &&
			!strings.Contains(
				strings.ToLower(stored.Username),
				strings.ToLower(params.Search),
			) {
			continue
		}
		if params.Role != "" && stored.Role != params.Role {
			continue
		}
		if params.VIP != nil && stored.IsVIP != *params.VIP {
			continue
		}
		matched = append(matched, *stored)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	start := params.Offset()
	if start >= total {
		return []User{}, total, nil
	}

	end := start + params.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (r *memoryRepository) All(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.byID))
	for _, stored := range r.byID {
		users = append(users, *stored)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	return users, nil
}

func (r *memoryRepository) CountCreatedBetween(
	_ context.Context,
	from, to time.Time,
) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, stored := range r.byID {
		if !stored.CreatedAt.Before(from) && stored.CreatedAt.Before(to) {
			count++
		}
	}

	return count, nil
}

func (r *memoryRepository) AwardsBetween(
	_ context.Context,
	from, to time.Time,
) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fromKey := from.Format(dayBucketFormat)
	toKey := to.Format(dayBucketFormat)

	total := 0
	for day, awards := range r.awards {
		if day >= fromKey && day < toKey {
			total += awards
		}
	}

	return total, nil
}
