package main

import (
	"context"
	"flag"
	"os"

	"booksearch/internal/platform/db"
	"booksearch/internal/platform/logging"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()

	log, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			log.Fatal("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatal("create migration", zap.Error(err))
		}
		log.Info("migration created", zap.String("name", *name), zap.String("dir", dir))
		return
	}

	pool, err := db.Open(context.Background(), databaseDSN(), 2)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("set dialect", zap.Error(err))
	}

	switch *command {
	case "up":
		if err := goose.Up(sqlDB, dir); err != nil {
			log.Fatal("run migrations", zap.Error(err))
		}
		log.Info("migrations applied", zap.String("dir", dir))
	case "down":
		if err := goose.Down(sqlDB, dir); err != nil {
			log.Fatal("roll back migration", zap.Error(err))
		}
		log.Info("migration rolled back", zap.String("dir", dir))
	case "status":
		if err := goose.Status(sqlDB, dir); err != nil {
			log.Fatal("migration status", zap.Error(err))
		}
	default:
		log.Fatal("unknown command, use: up, down, status, create", zap.String("command", *command))
	}
}
