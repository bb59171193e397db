package main

import (
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"watchshop-be/internal/logger"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "up", "migration mode: up or down")
	dir := flag.String("dir", "./migrations", "directory holding *.sql migrations")
	flag.Parse()

	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()
	log := logger.L()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	defer db.Close()

	if err := run(db, *mode, *dir); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func run(db *sql.DB, mode, migrationsDir string) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return errors.Wrap(err, "ensure schema_migrations table")
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	// File names carry a sortable prefix.
	sort.Strings(files)

	switch mode {
	case "up":
		return runMigrationsUp(db, files)
	case "down":
		return runMigrationsDown(db, files)
	default:
		return errors.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}
}

// apply executes one migration section and its bookkeeping statement in a
// single transaction.
func apply(db *sql.DB, script, record, version string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(script); err != nil {
		return errors.Wrapf(err, "exec %s", version)
	}
	if _, err := tx.Exec(record, version); err != nil {
		return errors.Wrapf(err, "record %s", version)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", version)
	}
	committed = true
	return nil
}

func runMigrationsUp(db *sql.DB, files []string) error {
	log := logger.L()

	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, "check migration status")
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return errors.Wrapf(err, "read %s", file)
		}

		log.Info("applying migration", zap.String("version", version))
		upSQL := extractMigrationPart(string(content), "Up")
		if err := apply(db, upSQL, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return err
		}
	}

	log.Info("migrations up to date", zap.Int("files", len(files)))
	return nil
}

func runMigrationsDown(db *sql.DB, files []string) error {
	log := logger.L()

	var lastVersion string
	err := db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&lastVersion)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("no migrations to roll back")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "find last applied migration")
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return errors.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "read %s", filePath)
	}

	log.Info("rolling back migration", zap.String("version", lastVersion))
	downSQL := extractMigrationPart(string(content), "Down")
	return apply(db, downSQL, `DELETE FROM schema_migrations WHERE version = $1`, lastVersion)
}

func extractMigrationPart(content string, section string) string {
	var part strings.Builder
	var inPart bool

	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
