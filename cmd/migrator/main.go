package main

import (
	"database/sql"
	"flag"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/mock-interview/internal/config"
	"github.com/gokatarajesh/mock-interview/internal/db/migrations"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, or reset")
		dir     = flag.String("dir", "", "Directory containing migration files (defaults to the embedded set)")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load("configs/.env"); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load configs/.env")
	}

	var pg config.Postgres
	if err := env.Parse(&pg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse postgres configuration")
	}
	if pg.User == "" {
		log.Fatal().Msg("PG_USER environment variable is required")
	}
	if pg.Database == "" {
		log.Fatal().Msg("PG_DATABASE environment variable is required")
	}

	var migrationFS fs.FS = migrations.FS
	source := "embedded"
	if *dir != "" {
		if _, err := os.Stat(*dir); os.IsNotExist(err) {
			log.Fatal().Str("dir", *dir).Msg("migration directory does not exist")
		}
		migrationFS = os.DirFS(*dir)
		source = *dir
	}

	db, err := sql.Open("pgx", pg.ConnString())
	if err != nil {
		log.Fatal().Err(err).Str("host", pg.Host).Int("port", pg.Port).Msg("failed to open database connection")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Str("migrations", source).
		Msg("connected to database")

	goose.SetBaseFS(migrationFS)
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("failed to set goose dialect")
	}

	switch *command {
	case "up":
		if err := goose.Up(db, "."); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations up")
		}
		log.Info().Msg("migrations applied successfully")

	case "down":
		if err := goose.Down(db, "."); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations down")
		}
		log.Info().Msg("migrations rolled back successfully")

	case "reset":
		if err := goose.Reset(db, "."); err != nil {
			log.Fatal().Err(err).Msg("failed to reset migrations")
		}
		log.Info().Msg("migrations reset")

	case "status":
		if err := goose.Status(db, "."); err != nil {
			log.Fatal().Err(err).Msg("failed to get migration status")
		}

	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: up, down, status, or reset")
	}
}
