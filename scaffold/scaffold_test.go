package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewData(t *testing.T) {
	tests := []struct {
		name, project, site string
	}{
		{"portfolio", "portfolio", "Portfolio"},
		{"my-site", "my-site", "My Site"},
		{"sites/james-garcia", "james-garcia", "James Garcia"},
	}
	for _, tt := range tests {
		d := NewData(tt.name)
		if d.ProjectName != tt.project || d.SiteName != tt.site {
			t.Errorf("NewData(%q) = %+v, want %q/%q", tt.name, d, tt.project, tt.site)
		}
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-site")
	created, err := Write(dir, NewData("my-site"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(created) == 0 {
		t.Fatal("no files created")
	}

	cfg, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("config.toml: %v", err)
	}
	if !strings.Contains(string(cfg), `title = "My Site"`) {
		t.Errorf("config.toml not templated:\n%s", cfg)
	}

	// Site templates are copied untouched.
	layout, err := os.ReadFile(filepath.Join(dir, "source", "layouts", "layout.html"))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.Contains(string(layout), "{{ .Content }}") {
		t.Error("layout lost its template actions")
	}

	for _, name := range []string{".env.example", ".gitignore", "data/projects.yml", "source/blog/2024-01-15-hello-world.md"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "dotenv")); !os.IsNotExist(err) {
		t.Error("dotenv should be renamed")
	}
}

func TestWriteRefusesExistingDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(dir, NewData("x")); err == nil {
		t.Fatal("expected error for existing directory")
	}
}
