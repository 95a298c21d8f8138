package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/credits"
)

// seeds a local test user with a fresh credit pool and prints a JWT for it
func main() {
	email := flag.String("email", "test@fittrack.dev", "test user email")
	admin := flag.Bool("admin", false, "issue an admin token")
	flag.Parse()

	// load environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// connect to database
	dbConnString := os.Getenv("DATABASE_URL")
	if dbConnString == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()

	dbPool, err := pgxpool.New(ctx, dbConnString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	state := credits.NewLedger(credits.DefaultPolicy()).NewState()

	// create the user, or reset an existing one to a full pool
	var userID string
	err = dbPool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, is_admin, hourly_remaining, hourly_reset_at, daily_used, daily_reset_at)
		VALUES ($1, 'Test User', $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET is_admin = EXCLUDED.is_admin,
			hourly_remaining = EXCLUDED.hourly_remaining,
			hourly_reset_at = EXCLUDED.hourly_reset_at,
			daily_used = EXCLUDED.daily_used,
			daily_reset_at = EXCLUDED.daily_reset_at,
			updated_at = NOW()
		RETURNING id
	`, *email, *admin, state.HourlyRemaining, state.HourlyResetAt, state.DailyUsed, state.DailyResetAt).Scan(&userID)

	if err != nil {
		log.Fatalf("Failed to upsert test user: %v", err)
	}

	fmt.Printf("Test user: %s (ID: %s, admin: %t)\n", *email, userID, *admin)

	// generate JWT token
	token, err := auth.GenerateJWT(userID, *email, *admin)
	if err != nil {
		log.Fatalf("Failed to generate JWT: %v", err)
	}

	fmt.Printf("\nTest JWT Token:\n%s\n\n", token)
	fmt.Printf("Export this token for testing:\nexport TEST_TOKEN=\"%s\"\n", token)
}
