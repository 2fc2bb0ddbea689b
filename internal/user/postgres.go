// AngelaMos | 2026
// postgres.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/angelamos/blux-portal/internal/core"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const userColumns = `id, username, password_hash, role, game_completed,
	ads_watched, token_count, redemption_code, code_redeemed,
	last_quest_completed_at, daily_quest_count, is_vip, vip_expires_at,
	created_at`

func (r *postgresRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(
	ctx context.Context,
	id int64,
) (*User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE id = $1`,
		userColumns,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *postgresRepository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE username = $1`,
		userColumns,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

const updateUserQuery = `
	UPDATE users
	SET password_hash = $2, role = $3, game_completed = $4, ads_watched = $5,
	    token_count = $6, redemption_code = $7, code_redeemed = $8,
	    last_quest_completed_at = $9, daily_quest_count = $10,
	    is_vip = $11, vip_expires_at = $12
	WHERE id = $1`

func updateUserArgs(user *User) []any {
	return []any{
		user.ID,
		user.PasswordHash,
		user.Role,
		user.GameCompleted,
		user.AdsWatched,
		user.TokenCount,
		user.RedemptionCode,
		user.CodeRedeemed,
		user.LastQuestCompletedAt,
		user.DailyQuestCount,
		user.IsVIP,
		user.VIPExpiresAt,
	}
}

func (r *postgresRepository) Update(ctx context.Context, user *User) error {
	result, err := r.db.ExecContext(ctx, updateUserQuery, updateUserArgs(user)...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *postgresRepository) SaveAward(
	ctx context.Context,
	user *User,
	day time.Time,
) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			updateUserQuery,
			updateUserArgs(user)...,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("update user: %w", core.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO quest_awards (day, awards)
			VALUES ($1, 1)
			ON CONFLICT (day) DO UPDATE SET awards = quest_awards.awards + 1`,
			day.Format("2006-01-02"),
		)
		if err != nil {
			return fmt.Errorf("bump award bucket: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save award: %w", err)
	}

	return nil
}

func (r *postgresRepository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"username ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.VIP != nil {
		conditions = append(conditions, fmt.Sprintf("is_vip = $%d", argIdx))
		args = append(args, *params.VIP)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *postgresRepository) All(ctx context.Context) ([]User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users ORDER BY id`,
		userColumns,
	)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	return users, nil
}

func (r *postgresRepository) CountCreatedBetween(
	ctx context.Context,
	from, to time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*) FROM users
		WHERE created_at >= $1 AND created_at < $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}

	return count, nil
}

func (r *postgresRepository) AwardsBetween(
	ctx context.Context,
	from, to time.Time,
) (int, error) {
	query := `
		SELECT COALESCE(SUM(awards), 0) FROM quest_awards
		WHERE day >= $1 AND day < $2`

	var total int
	err := r.db.GetContext(ctx, &total, query,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)
	if err != nil {
		return 0, fmt.Errorf("sum awards: %w", err)
	}

	return total, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
