package seeders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"gpit-system/pkg/constants"
)

type demoUser struct {
	name  string
	email string
	role  string
}

type demoEquipment struct {
	name         string
	eqType       string
	serialNumber string
}

var demoUsers = []demoUser{
	{"Jean Dupont", "jean.dupont@example.com", constants.RoleEmployee},
	{"Marie Martin", "marie.martin@example.com", constants.RoleEmployee},
	{"Paul Bernard", "paul.bernard@example.com", constants.RoleTechnician},
}

var demoEquipments = []demoEquipment{
	{"Dell Latitude 5420", "laptop", "DL-5420-0001"},
	{"HP LaserJet Pro", "printer", "HP-LJP-0042"},
	{"Lenovo ThinkVision P27", "monitor", "LN-TV-0117"},
}

// SeedDemo fills the database with a small demo data set. Every demo user
// signs in with the same throwaway password.
func SeedDemo(db *pgxpool.Pool) error {
	ctx := context.Background()
	log.Println("seeding demo data...")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	for _, u := range demoUsers {
		_, err := db.Exec(ctx, `
			INSERT INTO users (name, email, password, role, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING`,
			u.name, u.email, string(hash), u.role, constants.UserStatusActive,
		)
		if err != nil {
			return fmt.Errorf("insert demo user %s: %w", u.email, err)
		}
	}

	var adminID uint64
	err = db.QueryRow(ctx, "SELECT id FROM users WHERE role = $1 LIMIT 1", constants.RoleAdmin).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("demo equipment needs a seeded admin: %w", err)
	}

	purchaseDate := time.Now().AddDate(-1, 0, 0)
	for _, e := range demoEquipments {
		_, err := db.Exec(ctx, `
			INSERT INTO equipments (name, type, serial_number, purchase_date, status, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (serial_number) DO NOTHING`,
			e.name, e.eqType, e.serialNumber, purchaseDate, constants.EquipmentStatusAvailable, adminID,
		)
		if err != nil {
			return fmt.Errorf("insert demo equipment %s: %w", e.serialNumber, err)
		}
	}

	log.Println("demo data seeded")
	return nil
}
