package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emranffl/gain-solutions/internal/config"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	dir := flag.String("dir", "migrations", "migration directory")
	flag.Parse()

	log := logrus.New()

	direction := flag.Arg(0)
	if direction != "up" && direction != "down" {
		log.Fatal("usage: go run scripts/run_migrations.go [-dir migrations] up|down")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("ping database")
	}

	files, err := migrationFiles(*dir, direction)
	if err != nil {
		log.WithError(err).Fatal("collect migrations")
	}

	for _, filename := range files {
		content, err := os.ReadFile(filepath.Join(*dir, filename))
		if err != nil {
			log.WithError(err).WithField("file", filename).Fatal("read migration")
		}

		log.WithField("file", filename).Info("running migration")
		if _, err := db.Exec(string(content)); err != nil {
			log.WithError(err).WithField("file", filename).Fatal("execute migration")
		}
	}

	log.WithFields(logrus.Fields{
		"count":     len(files),
		"direction": direction,
	}).Info("migrations complete")
}

func migrationFiles(dir, direction string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	var files []string
	suffix := fmt.Sprintf(".%s.sql", direction)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	if direction == "down" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	return files, nil
}
