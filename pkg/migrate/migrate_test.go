package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm/schema"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := Embedded().Validate(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestEmbeddedMigrationsCreateEveryModelTable(t *testing.T) {
	entries, err := bundled.ReadDir(bundledDir)
	if err != nil {
		t.Fatalf("read embedded dir: %v", err)
	}
	var all strings.Builder
	for _, e := range entries {
		b, err := bundled.ReadFile(bundledDir + "/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		all.Write(b)
	}
	sql := all.String()

	cache := &sync.Map{}
	for _, m := range models.All() {
		s, err := schema.Parse(m, cache, schema.NamingStrategy{})
		if err != nil {
			t.Fatalf("parse schema for %T: %v", m, err)
		}
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+s.Table+" (") {
			t.Fatalf("no migration creates table %q", s.Table)
		}
	}
}

func TestCatalogMigrationConstraints(t *testing.T) {
	b, err := bundled.ReadFile(bundledDir + "/20250301120100_create_catalog.sql")
	if err != nil {
		t.Fatalf("read catalog migration: %v", err)
	}
	sql := string(b)
	for _, want := range []string{
		"PRIMARY KEY (product_id, event_id)",
		"UNIQUE (product_id, name)",
		"FOREIGN KEY (parent_id) REFERENCES categories(id) ON DELETE RESTRICT",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("catalog migration missing %q", want)
		}
	}
}

func TestValidateDir(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr bool
	}{
		{
			name:  "valid",
			files: map[string]string{"20250101000000_init.sql": "-- +goose Up\n-- +goose Down\n"},
		},
		{
			name:    "bad filename",
			files:   map[string]string{"init.sql": "-- +goose Up\n-- +goose Down\n"},
			wantErr: true,
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"20250101000000_a.sql": "-- +goose Up\n-- +goose Down\n",
				"20250101000000_b.sql": "-- +goose Up\n-- +goose Down\n",
			},
			wantErr: true,
		},
		{
			name:    "missing down",
			files:   map[string]string{"20250101000000_init.sql": "-- +goose Up\n"},
			wantErr: true,
		},
		{
			name:    "empty",
			files:   map[string]string{"README.md": "notes"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, body := range tc.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
					t.Fatalf("write %s: %v", name, err)
				}
			}
			err := Disk(dir).Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := newFile(dir, "Add  Cart-Index!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20250301120000_add_cart_index.sql" {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}
	if err := Disk(dir).Validate(); err != nil {
		t.Fatalf("created migration does not validate: %v", err)
	}

	if _, err := newFile(dir, "add cart index", now); err == nil {
		t.Fatal("expected error for existing migration")
	}
	if _, err := newFile(dir, "!!!", now); err == nil {
		t.Fatal("expected error for unusable name")
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Add Cart Index":    "add_cart_index",
		"  events--expiry ": "events_expiry",
		"café":              "caf",
		"v2 products":       "v2_products",
		"***":               "",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSourceRequiresDB(t *testing.T) {
	if err := Embedded().Run(context.Background(), nil, "up"); err == nil {
		t.Fatal("expected error without a database")
	}
	if err := Disk(t.TempDir()).MigrateTo(context.Background(), nil, "abc"); err == nil {
		t.Fatal("expected error for a non-numeric version")
	}
}
