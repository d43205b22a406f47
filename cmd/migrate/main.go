package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/config"
	"github.com/ivankudzin/dochub/internal/infra/logger"
	"github.com/ivankudzin/dochub/migrations"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	ctx := context.Background()

	if err := migrator.Init(ctx); err != nil {
		log.Fatal("init migrator", zap.Error(err))
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := migrator.Lock(ctx); err != nil {
			log.Fatal("lock migrations", zap.Error(err))
		}
		defer func() {
			_ = migrator.Unlock(ctx)
		}()

		group, err := migrator.Migrate(ctx)
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		if group.IsZero() {
			log.Info("no new migrations to run")
			return
		}
		log.Info("migrated", zap.String("group", group.String()))

	case "down":
		if err := migrator.Lock(ctx); err != nil {
			log.Fatal("lock migrations", zap.Error(err))
		}
		defer func() {
			_ = migrator.Unlock(ctx)
		}()

		group, err := migrator.Rollback(ctx)
		if err != nil {
			log.Fatal("rollback", zap.Error(err))
		}
		if group.IsZero() {
			log.Info("no migrations to roll back")
			return
		}
		log.Info("rolled back", zap.String("group", group.String()))

	case "status":
		ms, err := migrator.MigrationsWithStatus(ctx)
		if err != nil {
			log.Fatal("migration status", zap.Error(err))
		}
		for _, m := range ms {
			status := "pending"
			if m.IsApplied() {
				status = "applied"
			}
			fmt.Printf("%s: %s\n", m.Name, status)
		}

	case "create":
		name := "migration"
		if len(os.Args) > 2 {
			name = strings.Join(os.Args[2:], "_")
		}
		files, err := migrator.CreateTxSQLMigrations(ctx, name)
		if err != nil {
			log.Fatal("create migration", zap.Error(err))
		}
		for _, f := range files {
			fmt.Printf("created %s\n", f.Path)
		}

	default:
		fmt.Println("usage: migrate [up|down|status|create <name>]")
		os.Exit(1)
	}
}
