package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"authhub/internal/database"
	"authhub/internal/repository"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx := context.Background()
	now := time.Now()

	tokenRepo := repository.NewRefreshTokenRepository(db)
	removed, err := tokenRepo.DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("cleanup refresh_tokens failed: %v", err)
	}

	secrets := db.WithContext(ctx).Exec(
		`UPDATE users SET
			email_verification_token_hash = '', email_verification_expires = NULL
		WHERE email_verification_expires IS NOT NULL AND email_verification_expires < ?`, now)
	if secrets.Error != nil {
		log.Fatalf("cleanup verification secrets failed: %v", secrets.Error)
	}

	resets := db.WithContext(ctx).Exec(
		`UPDATE users SET
			password_reset_token_hash = '', password_reset_expires = NULL
		WHERE password_reset_expires IS NOT NULL AND password_reset_expires < ?`, now)
	if resets.Error != nil {
		log.Fatalf("cleanup reset secrets failed: %v", resets.Error)
	}

	log.Printf("auth cleanup completed: refresh_tokens=%d verification_secrets=%d reset_secrets=%d",
		removed, secrets.RowsAffected, resets.RowsAffected)
}
