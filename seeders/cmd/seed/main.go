package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"gpit-system/pkg/config"
	"gpit-system/pkg/database/postgresql"
	"gpit-system/seeders"
)

func main() {
	runMigrations := flag.Bool("migrate", false, "apply pending migrations before seeding")
	runAdmin := flag.Bool("admin", false, "ensure the admin account exists")
	runDemo := flag.Bool("demo", false, "load the demo data set")
	runAll := flag.Bool("all", false, "equivalent to -migrate -admin -demo")
	flag.Parse()

	if !*runMigrations && !*runAdmin && !*runDemo && !*runAll {
		log.Println("nothing selected")
		flag.PrintDefaults()
		return
	}

	cfg := config.New()

	if *runAll || *runMigrations {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("open database for migrations: %v", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			log.Fatalf("set goose dialect: %v", err)
		}
		if err := goose.Up(db, "migrations"); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		db.Close()
		log.Println("migrations applied")
	}

	pool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer pool.Close()

	if *runAll || *runAdmin {
		email := getenv("ADMIN_EMAIL", "admin@gpit.local")
		password := getenv("ADMIN_PASSWORD", "admin123")
		if err := seeders.SeedAdmin(pool, email, password); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	if *runAll || *runDemo {
		if err := seeders.SeedDemo(pool); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
