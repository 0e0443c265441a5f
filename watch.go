package folio

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamgar/folio/markdown"
)

// watchDebounce is how long Watch waits for a burst of changes to settle
// before rebuilding.
const watchDebounce = 200 * time.Millisecond

// Watch rebuilds the site whenever a file under the source or data
// directory, or the config file, changes. Each rebuild's outcome is passed
// to done. A changed config file is reloaded before the rebuild. Watch
// returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context, done func(BuildResult, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := []string{a.Config.SourcePath(), a.Config.DataPath()}
	for _, dir := range roots {
		a.watchTree(w, dir)
	}
	cfgFile := a.Config.File()
	if cfgFile != "" {
		if err := w.Add(filepath.Dir(cfgFile)); err != nil {
			a.Logger.Warnf("watch %s: %v", cfgFile, err)
		}
	}

	var (
		timer    *time.Timer
		fire     <-chan time.Time
		reloadCf bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			isConfig := cfgFile != "" && filepath.Clean(ev.Name) == filepath.Clean(cfgFile)
			if !isConfig && !within(ev.Name, roots) {
				continue
			}
			if base := filepath.Base(ev.Name); strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
				continue
			}
			a.Logger.Debugf("change detected: %s (%s)", ev.Name, ev.Op)
			if ev.Has(fsnotify.Create) && isDir(ev.Name) {
				a.watchTree(w, ev.Name)
			}
			if isConfig {
				reloadCf = true
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if reloadCf {
				reloadCf = false
				if err := a.reloadConfig(); err != nil {
					done(BuildResult{}, err)
					continue
				}
			}
			res, err := a.Build(ctx)
			done(res, err)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warnf("watcher error: %v", err)
		}
	}
}

// watchTree adds dir and every directory below it to w.
func (a *App) watchTree(w *fsnotify.Watcher, dir string) {
	if _, err := os.Stat(dir); err != nil {
		a.Logger.Debugf("not watching %s: %v", dir, err)
		return
	}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			a.Logger.Warnf("walk %s: %v", p, err)
			return nil
		}
		if d.IsDir() {
			if err := w.Add(p); err != nil {
				a.Logger.Warnf("watch %s: %v", p, err)
			}
		}
		return nil
	})
	if err != nil {
		a.Logger.Warnf("watch %s: %v", dir, err)
	}
}

// reloadConfig rereads the config file. The build directory, database
// and listen address are fixed for the life of the process: the server
// keeps serving the directory it started with and the store stays open on
// its database, so changes to them only apply after a restart.
func (a *App) reloadConfig() error {
	cfg, err := LoadConfig(a.Config.File())
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.BuildPath() != a.Config.BuildPath() {
		a.Logger.Warnf("build_dir changed to %s, restart to use it", cfg.BuildPath())
	}
	if cfg.DatabaseFile() != a.Config.DatabaseFile() {
		a.Logger.Warnf("database_path changed to %s, restart to use it", cfg.DatabaseFile())
	}
	cfg.BuildDir = a.Config.BuildDir
	cfg.DatabasePath = a.Config.DatabasePath
	cfg.Addr = a.Config.Addr
	cfg.root = a.Config.root
	a.Config = cfg
	a.md = markdown.New(cfg.MarkdownOptions())
	a.Logger.Infof("reloaded %s", cfg.File())
	return nil
}

func within(p string, roots []string) bool {
	p = filepath.Clean(p)
	for _, r := range roots {
		r = filepath.Clean(r)
		if p == r || strings.HasPrefix(p, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
