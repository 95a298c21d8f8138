package plans

const (
	queryCreate = `
		INSERT INTO ai_interactions (user_id, kind, prompt, response, credits_snapshot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, kind, prompt, response, credits_snapshot, applied, created_at
	`

	queryCountByUser = `
		SELECT COUNT(*)
		FROM ai_interactions
		WHERE user_id = $1
	`

	queryList = `
		SELECT id, user_id, kind, prompt, response, credits_snapshot, applied, created_at
		FROM ai_interactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	queryMarkApplied = `
		UPDATE ai_interactions
		SET applied = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, kind, prompt, response, credits_snapshot, applied, created_at
	`

	queryDelete = `
		DELETE FROM ai_interactions
		WHERE id = $1 AND user_id = $2
	`
)
