package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var bundled embed.FS

const bundledDir = "migrations"

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// Source is a set of goose SQL migrations, either a directory on disk or the
// copy compiled into the binary.
type Source struct {
	fsys     fs.FS
	dir      string
	embedded bool
}

func Disk(dir string) Source {
	return Source{fsys: os.DirFS(dir), dir: dir}
}

func Embedded() Source {
	return Source{fsys: bundled, dir: bundledDir, embedded: true}
}

func (s Source) String() string {
	if s.embedded {
		return "embedded:" + s.dir
	}
	return s.dir
}

// Run executes a plain goose command (up, down, status, ...). The SQL files
// are written for Postgres; SQLite schemas are synced from the models instead.
func (s Source) Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return s.withGoose(db, func() error {
		if err := goose.RunContext(ctx, command, db, s.dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down until it sits at version.
func (s Source) MigrateTo(ctx context.Context, db *sql.DB, version string) error {
	if version == "" {
		return fmt.Errorf("version is required")
	}
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}

	return s.withGoose(db, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < target:
			err = goose.UpToContext(ctx, db, s.dir, target)
		case current > target:
			err = goose.DownToContext(ctx, db, s.dir, target)
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
		}
		return nil
	})
}

func (s Source) withGoose(db *sql.DB, fn func() error) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if s.dir == "" {
		return fmt.Errorf("migration dir is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if s.embedded {
		goose.SetBaseFS(s.fsys)
		defer goose.SetBaseFS(nil)
	}
	return fn()
}
