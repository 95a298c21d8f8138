package errorlog

const (
	recordColumns = `id, identity, session_id, error_type, error_code, message, details, severity, status, notes, created_at, resolved_at, resolved_by`

	queryInsert = `
		INSERT INTO error_logs (id, identity, session_id, error_type, error_code, message, details, severity, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	queryGet = `
		SELECT ` + recordColumns + `
		FROM error_logs
		WHERE id = $1
	`

	queryUpdateStatus = `
		UPDATE error_logs
		SET status = $2,
			notes = COALESCE($3, notes),
			resolved_at = $4,
			resolved_by = $5
		WHERE id = $1
		RETURNING ` + recordColumns

	queryDelete = `
		DELETE FROM error_logs
		WHERE id = $1
	`

	queryDeleteTerminalBefore = `
		DELETE FROM error_logs
		WHERE status IN ('RESOLVED', 'IGNORED')
		AND created_at < $1
	`

	queryStatsTotals = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'OPEN'),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM error_logs
	`

	queryStatsByStatus = `
		SELECT status, COUNT(*) FROM error_logs GROUP BY status
	`

	queryStatsBySeverity = `
		SELECT severity, COUNT(*) FROM error_logs GROUP BY severity
	`

	queryStatsByType = `
		SELECT error_type, COUNT(*) FROM error_logs GROUP BY error_type
	`
)
