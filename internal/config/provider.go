package config

import (
	"context"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Provider hands out immutable configuration snapshots and swaps in a new
// one when the config file changes. Consumers call Snapshot at the start
// of each unit of work (the mapper does so per cycle), so a reload never
// races an in-flight cycle.
type Provider struct {
	current atomic.Pointer[Config]
	path    string
}

// NewProvider wraps an already-loaded config. path may be empty for
// providers that are never reloaded (tests).
func NewProvider(cfg *Config, path string) *Provider {
	p := &Provider{path: path}
	p.current.Store(cfg)
	return p
}

// Snapshot returns the current configuration. Callers must treat the
// returned value as read-only.
func (p *Provider) Snapshot() *Config {
	return p.current.Load()
}

// Swap replaces the current snapshot. Used by Reload and by tests that
// flip settings between cycles.
func (p *Provider) Swap(cfg *Config) {
	p.current.Store(cfg)
}

// Reload re-reads the config file and swaps the snapshot. An invalid or
// unreadable file leaves the previous snapshot in place.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	cfg, err := loadFile(p.path)
	if err != nil {
		return err
	}
	p.current.Store(cfg)
	return nil
}

// Watch reloads the snapshot whenever the config file is written. It
// watches the parent directory because editors typically replace the file
// rather than write it in place. Blocks until ctx is done.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return err
	}

	// Debounce bursts: editors fire several events per save
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[config] watch error: %v", err)
		case <-pending:
			pending = nil
			if err := p.Reload(); err != nil {
				log.Printf("[config] reload failed, keeping previous config: %v", err)
				continue
			}
			log.Printf("[config] reloaded %s", p.path)
		}
	}
}
