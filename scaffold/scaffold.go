// Package scaffold provides the embedded starter site written by
// `folio new`.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// Templates contains all scaffold files. Files with a .tmpl suffix are
// executed as Go text/templates with Data; everything else, including the
// site's own templates, is copied as is.
//
//go:embed all:templates
var Templates embed.FS

const root = "templates"

// Data holds the template variables passed to every .tmpl file.
type Data struct {
	ProjectName string
	SiteName    string
}

// NewData derives the template variables from a project name, which may be
// a path such as "sites/portfolio".
func NewData(name string) Data {
	dir := path.Base(filepath.ToSlash(name))
	return Data{
		ProjectName: dir,
		SiteName:    toTitle(dir),
	}
}

// renamed maps scaffold files that cannot carry their real name in the
// embedded tree.
var renamed = map[string]string{
	"dotenv":    ".env.example",
	"gitignore": ".gitignore",
}

// Write creates dir and fills it with the starter site, returning the
// files it created. It refuses to write into an existing directory.
func Write(dir string, data Data) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("directory %q already exists", dir)
	}

	var created []string
	err := fs.WalkDir(Templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		outPath := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := Templates.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if strings.HasSuffix(outPath, ".tmpl") {
			outPath = strings.TrimSuffix(outPath, ".tmpl")
			tmpl, err := template.New(path.Base(p)).Parse(string(content))
			if err != nil {
				return fmt.Errorf("parse template %s: %w", p, err)
			}
			var b strings.Builder
			if err := tmpl.Execute(&b, data); err != nil {
				return fmt.Errorf("execute template %s: %w", p, err)
			}
			content = []byte(b.String())
		}
		if name, ok := renamed[filepath.Base(outPath)]; ok {
			outPath = filepath.Join(filepath.Dir(outPath), name)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		created = append(created, outPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
