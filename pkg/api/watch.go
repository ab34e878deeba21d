package api

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/gamekitlabs/formula-engine/pkg/store"
)

var validFormulaID = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// LoadDir loads all .formula files from the given directory into the store.
// The file name sans extension becomes the formula name. Files that fail to
// load are logged and skipped.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading formulas directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if s.loadFile(filepath.Join(dir, entry.Name())) {
			loaded++
		}
	}

	log.Printf("Loaded %d formula(s) from %s", loaded, dir)
	return nil
}

// WatchDir loads the directory like LoadDir and then keeps watching it.
// New and modified .formula files are upserted into the store, removed
// files are deleted. Close the returned watcher to stop.
func (s *Server) WatchDir(dir string) (*DirWatcher, error) {
	if err := s.LoadDir(dir); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating directory watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &DirWatcher{fw: fw, done: make(chan struct{})}
	go w.run(s)
	return w, nil
}

// DirWatcher mirrors a formulas directory into the store until closed.
type DirWatcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// Close stops the watcher.
func (w *DirWatcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *DirWatcher) run(s *Server) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			name, valid := formulaName(event.Name)
			if !valid {
				continue
			}
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				s.loadFile(event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if err := s.store.Delete(name); err == nil {
					log.Printf("Removed formula %q", name)
				}
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: formulas directory watch: %v", err)
		}
	}
}

// loadFile upserts a single formula file into the store. Returns whether
// the file was loaded.
func (s *Server) loadFile(path string) bool {
	name, valid := formulaName(path)
	if !valid {
		if filepath.Ext(path) == ".formula" {
			log.Printf("Warning: skipping file %q, invalid formula name", filepath.Base(path))
		}
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: could not read %q: %v", path, err)
		return false
	}
	source := strings.TrimSpace(string(data))

	_, err = s.store.Create(name, source, "")
	if errors.Is(err, store.ErrExists) {
		_, err = s.store.Update(name, source, "")
	}
	if err != nil {
		log.Printf("Warning: could not load %q: %v", path, err)
		return false
	}

	log.Printf("Loaded formula %q from %s", name, filepath.Base(path))
	return true
}

// formulaName derives the formula name from a file path. The second return
// reports whether the file is a loadable .formula file.
func formulaName(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".formula" {
		return "", false
	}
	name := strings.TrimSuffix(base, ext)
	if !validFormulaID.MatchString(name) || len(name) > 128 {
		return "", false
	}
	return name, true
}
