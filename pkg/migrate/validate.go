package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

var fileNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredMarkers = []string{"-- +goose Up", "-- +goose Down"}

// Validate checks every .sql file in the source: the file name carries a
// unique 14 digit version and the body has both goose sections.
func (s Source) Validate() error {
	if s.fsys == nil {
		return fmt.Errorf("migration source is empty")
	}
	root := "."
	if s.embedded {
		root = s.dir
	}

	entries, err := fs.ReadDir(s.fsys, root)
	if err != nil {
		return fmt.Errorf("read %s: %w", s, err)
	}

	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		if err := checkFile(s.fsys, root, entry.Name(), versions); err != nil {
			return err
		}
	}
	if len(versions) == 0 {
		return fmt.Errorf("no migrations found in %s", s)
	}
	return nil
}

func checkFile(fsys fs.FS, root, name string, versions map[string]string) error {
	match := fileNameRe.FindStringSubmatch(name)
	if match == nil {
		return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
	}
	if other, dup := versions[match[1]]; dup {
		return fmt.Errorf("migrations %q and %q share version %s", other, name, match[1])
	}
	versions[match[1]] = name

	body, err := fs.ReadFile(fsys, path.Join(root, name))
	if err != nil {
		return fmt.Errorf("read %q: %w", name, err)
	}
	for _, marker := range requiredMarkers {
		if !strings.Contains(string(body), marker) {
			return fmt.Errorf("migration %q has no %q section", name, marker)
		}
	}
	return nil
}
