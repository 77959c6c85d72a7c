package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"gpit-system/pkg/constants"
)

// SeedAdmin makes sure at least one active admin account exists. The
// deletion guard refuses to remove the last one, so this seed is the floor
// the system never drops below.
func SeedAdmin(db *pgxpool.Pool, email, password string) error {
	ctx := context.Background()
	log.Println("seeding admin account...")

	var existing uint64
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		log.Printf("admin %s already exists, skipping", email)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin existence: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO users (name, email, password, role, status)
		VALUES ('Administrator', $1, $2, $3, $4)`,
		email, string(hash), constants.RoleAdmin, constants.UserStatusActive,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	log.Printf("admin %s created", email)
	return nil
}
