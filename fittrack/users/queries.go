package users

const (
	queryLockCredits = `
		SELECT hourly_remaining, hourly_reset_at, daily_used, daily_reset_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	queryCredits = `
		SELECT hourly_remaining, hourly_reset_at, daily_used, daily_reset_at
		FROM users
		WHERE id = $1
	`

	queryUpdateCredits = `
		UPDATE users
		SET hourly_remaining = $2,
			hourly_reset_at = $3,
			daily_used = $4,
			daily_reset_at = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	queryProfile = `
		SELECT display_name, fitness_level, goals
		FROM users
		WHERE id = $1
	`
)
