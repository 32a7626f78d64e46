package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const upTemplate = `-- {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

const downTemplate = `-- Rollback for {{.Name}}

`

// versionWidth matches the zero padding of the existing schema files.
const versionWidth = 6

// MigrationFile describes a generated up/down pair.
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// version already in dir.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if len(existing) > 0 {
		next = existing[len(existing)-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionWidth, next, slug)
	mf := &MigrationFile{
		Version:     next,
		Name:        slug,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func writeTemplate(path, text string, data *MigrationFile) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName lowercases name and collapses separators into single
// underscores. Anything else is dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// Entry is one migration found in a source.
type Entry struct {
	Version uint
	Name    string
	HasDown bool
}

// ListMigrations returns the migrations in fsys ordered by version. A missing
// directory yields no entries.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[uint]*Entry)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		base, isUp := strings.CutSuffix(f.Name(), ".up.sql")
		if !isUp {
			var isDown bool
			if base, isDown = strings.CutSuffix(f.Name(), ".down.sql"); !isDown {
				continue
			}
		}
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			continue
		}
		e, seen := byVersion[uint(v)]
		if !seen {
			e = &Entry{Version: uint(v), Name: name}
			byVersion[uint(v)] = e
		}
		if !isUp {
			e.HasDown = true
		}
	}

	out := make([]Entry, 0, len(byVersion))
	for _, e := range byVersion {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
