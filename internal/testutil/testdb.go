package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const templateDB = "settlement_template"

// One container per test binary; the reaper removes it when the process exits.
var shared struct {
	once    sync.Once
	err     error
	admin   *sql.DB
	baseURL *url.URL
}

// SetupTestDB returns a connection to a fresh database cloned from a migrated
// template. Tests using it are skipped under -short.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	shared.once.Do(func() {
		shared.err = startShared(context.Background())
	})
	if shared.err != nil {
		t.Fatalf("start test database: %v", shared.err)
	}

	name := "t_" + randomSuffix()
	if _, err := shared.admin.Exec(fmt.Sprintf("CREATE DATABASE %s TEMPLATE %s", name, templateDB)); err != nil {
		t.Fatalf("create database %s: %v", name, err)
	}

	db, err := sql.Open("postgres", databaseURL(name))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		if _, err := shared.admin.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", name)); err != nil {
			t.Logf("drop database %s: %v", name, err)
		}
	})

	return db
}

func startShared(ctx context.Context) error {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("settlement_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("get connection string: %w", err)
	}
	shared.baseURL, err = url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("parse connection string: %w", err)
	}

	shared.admin, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("open admin db: %w", err)
	}

	if _, err := shared.admin.Exec("CREATE DATABASE " + templateDB); err != nil {
		return fmt.Errorf("create template: %w", err)
	}

	tmpl, err := sql.Open("postgres", databaseURL(templateDB))
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	defer tmpl.Close()

	if err := runMigrations(tmpl); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func databaseURL(name string) string {
	u := *shared.baseURL
	u.Path = "/" + name
	return u.String()
}

func randomSuffix() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func runMigrations(db *sql.DB) error {
	migrationsDir := findMigrationsDir()

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, f := range upFiles {
		content, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", f, err)
		}
	}

	return nil
}

// findMigrationsDir walks up from the package directory go test runs in.
func findMigrationsDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	for range 10 {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return "migrations"
}
