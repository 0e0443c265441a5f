package folio

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jamgar/folio/interact"
)

// HookReport lists the script hooks one built page lacks.
type HookReport struct {
	OutputPath string
	Missing    []string
}

// Check parses every HTML page of the last build that went through a
// layout and reports those missing an element id the page script needs.
// It reads the build manifest, so Build must have run first.
func (a *App) Check() ([]HookReport, error) {
	if a.Store == nil {
		if err := a.Open(); err != nil {
			return nil, err
		}
	}
	manifest, err := a.Store.Manifest()
	if err != nil {
		return nil, fmt.Errorf("folio: read manifest: %w", err)
	}
	if len(manifest) == 0 {
		return nil, fmt.Errorf("folio: nothing built yet")
	}

	var reports []HookReport
	for _, out := range sortedKeys(manifest) {
		e := manifest[out]
		if e.NoLayout || path.Ext(out) != ".html" {
			continue
		}
		f, err := os.Open(filepath.Join(a.Config.BuildPath(), filepath.FromSlash(out)))
		if err != nil {
			return nil, err
		}
		doc, err := interact.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("folio: %s: %w", out, err)
		}
		if missing := doc.MissingHooks(); len(missing) > 0 {
			a.Logger.Warnf("%s: missing #%s", out, strings.Join(missing, ", #"))
			reports = append(reports, HookReport{OutputPath: out, Missing: missing})
		}
	}
	return reports, nil
}
