package repository

import (
	"context"

	"codearena/internal/common/db"
	appErr "codearena/pkg/errors"
)

// LevelThreshold is the cumulative XP required per level.
// level = floor(xp / LevelThreshold) + 1, a monotonic function of XP.
const LevelThreshold = 100

// ProfileRepository applies XP and level side effects to user profiles.
type ProfileRepository interface {
	AwardXP(ctx context.Context, userID int64, amount int) error
}

// MySQLProfileRepository implements ProfileRepository with MySQL.
type MySQLProfileRepository struct {
	db db.Queryer
}

// NewProfileRepository creates a profile repository.
func NewProfileRepository(database db.Queryer) *MySQLProfileRepository {
	return &MySQLProfileRepository{db: database}
}

// AwardXP adds the amount to the user's XP and recomputes level in one
// statement, so concurrent awards cannot interleave a stale read-then-write.
func (r *MySQLProfileRepository) AwardXP(ctx context.Context, userID int64, amount int) error {
	if userID <= 0 {
		return appErr.ValidationError("user_id", "required")
	}
	if amount <= 0 {
		return appErr.ValidationError("amount", "must be positive")
	}

	// MySQL evaluates SET clauses left to right, so the level expression
	// already sees the incremented xp.
	query := `
		UPDATE profiles
		SET xp = xp + ?, level = FLOOR(xp / ?) + 1
		WHERE user_id = ?
	`
	result, err := r.db.Exec(ctx, query, amount, LevelThreshold, userID)
	if err != nil {
		return appErr.Wrapf(err, appErr.XPUpdateFailed, "award xp failed")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return appErr.Wrapf(err, appErr.XPUpdateFailed, "award xp failed")
	}
	if affected == 0 {
		return appErr.New(appErr.ProfileNotFound)
	}
	return nil
}
