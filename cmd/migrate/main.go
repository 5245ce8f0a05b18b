package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pr-poehali-dev/messenger-design-project/config"
	"github.com/pr-poehali-dev/messenger-design-project/internal/repository"
	"github.com/pr-poehali-dev/messenger-design-project/internal/seed"
	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/database"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"gorm.io/gorm"
)

const usage = `
Messenger - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Apply all pending migrations
  down        Roll back all migrations (DANGEROUS)
  status      Show schema version and table row counts
  seed-dev    Seed with development/test data

Flags:
  -users int         Number of demo users for seed-dev (default 5)
  -password string   Password of the demo users (default "Test@123!")

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate status
  go run ./cmd/migrate -users 8 seed-dev
  go run ./cmd/migrate down
`

var tables = []string{"users", "chats", "chat_members", "contacts", "messages"}

func main() {
	defaults := seed.DefaultConfig()
	users := flag.Int("users", defaults.UserCount, "Number of demo users for seed-dev")
	password := flag.String("password", defaults.Password, "Password of the demo users")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	command := flag.Arg(0)

	cfg := config.LoadConfig()
	l := logger.New(logger.DevelopmentMode)
	defer l.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		l.Errorf("Database connection failed: %v", err)
		os.Exit(1)
	}
	defer database.Close(db)

	ctx := context.Background()
	switch command {
	case "up":
		err = runMigrationsUp(db, l)
	case "down":
		err = runMigrationsDown(db, l)
	case "status":
		err = showStatus(ctx, db, l)
	case "seed-dev":
		err = runSeedDevelopment(ctx, db, cfg, l, &seed.Config{Password: *password, UserCount: *users})
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		l.Errorf("%s failed: %v", command, err)
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB, l *logger.Logger) error {
	l.Infof("Running migrations UP...")

	res, err := database.MigrateUp(db)
	if err != nil {
		return err
	}
	if !res.Changed {
		l.Infof("No pending migrations, schema at version %d", res.Version)
		return nil
	}
	l.Infof("Migrations completed, schema at version %d", res.Version)
	return nil
}

func runMigrationsDown(db *gorm.DB, l *logger.Logger) error {
	l.Warnf("Rolling back all migrations...")

	res, err := database.MigrateDown(db)
	if err != nil {
		return err
	}
	if !res.Changed {
		l.Infof("Nothing to roll back")
		return nil
	}
	l.Infof("Rollback completed")
	return nil
}

func showStatus(ctx context.Context, db *gorm.DB, l *logger.Logger) error {
	if err := database.HealthCheck(ctx, db); err != nil {
		return err
	}
	l.Infof("Database connection: OK")

	res, err := database.MigrationStatus(db)
	if err != nil {
		return err
	}
	if res.Dirty {
		l.Warnf("Schema version %d is DIRTY, fix it manually before migrating", res.Version)
	} else {
		l.Infof("Schema version: %d", res.Version)
	}

	for _, table := range tables {
		exists, err := database.TableExists(ctx, db, table)
		if err != nil {
			l.Warnf("Error checking table %s: %v", table, err)
			continue
		}
		if !exists {
			l.Warnf("Table %-14s does not exist", table)
			continue
		}
		count, err := database.GetTableCount(ctx, db, table)
		if err != nil {
			l.Warnf("Error counting table %s: %v", table, err)
			continue
		}
		l.Infof("Table %-14s exists (%d rows)", table, count)
	}
	return nil
}

func runSeedDevelopment(ctx context.Context, db *gorm.DB, cfg *config.Config, l *logger.Logger, seedCfg *seed.Config) error {
	l.Infof("Seeding database (development mode)...")

	store := repository.NewStore(db)
	seeder := seed.New(
		services.NewAuthService(store, cfg, nil, l),
		services.NewChatService(store),
		services.NewMessageService(store),
		l,
	)
	result, err := seeder.Run(ctx, seedCfg)
	if err != nil {
		return err
	}

	l.Infof("Seed Summary:")
	for _, u := range result.Users {
		l.Infof("   - user %s <%s> (ID: %d)", u.Username, u.Email, u.ID)
	}
	l.Infof("   - Chats: %d", len(result.ChatIDs))
	l.Infof("   - Messages: %d", result.Messages)
	l.Infof("Development seeding completed! Password for every user: %s", seedCfg.Password)
	return nil
}
