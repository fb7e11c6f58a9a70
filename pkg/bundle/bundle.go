package bundle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/fsutil"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/store"
)

// Contents is what a bundle carries: store entries and the scripts that go
// with them, keyed by method.
type Contents struct {
	Entries []*store.Entry
	Scripts map[method.Key]string
}

// Export writes c to a bundle at archivePath. Inside the archive the entries
// live in tweaks.json and the scripts under scripts/<key>.tengo.
func Export(ctx context.Context, c Contents, archivePath string) error {
	staging, err := os.MkdirTemp("", "gotweak-bundle-*")
	if err != nil {
		return errors.Wrap(err, "failed to create staging directory")
	}
	defer func() { _ = os.RemoveAll(staging) }()

	st := store.New()
	for _, e := range c.Entries {
		copied := *e
		st.Put(&copied)
	}
	if err := st.Save(filepath.Join(staging, fsutil.StoreFileName)); err != nil {
		return err
	}

	scriptsDir := filepath.Join(staging, fsutil.ScriptsDirName)
	if len(c.Scripts) > 0 {
		if err := fsutil.EnsureDir(scriptsDir); err != nil {
			return err
		}
	}
	for key, src := range c.Scripts {
		path := filepath.Join(scriptsDir, hook.ScriptFileName(key))
		if err := os.WriteFile(path, []byte(src), fsutil.FileModeDefault); err != nil {
			return errors.Wrapf(err, "failed to stage script %s", key)
		}
	}

	logger.Debug("Writing tweak bundle", logger.Fields{
		"path":    archivePath,
		"entries": len(c.Entries),
		"scripts": len(c.Scripts),
	})
	return NewManager().Create(ctx, staging, archivePath)
}

// Import reads the bundle at archivePath. A bundle without tweaks.json is
// rejected with ErrInvalidBundle.
func Import(ctx context.Context, archivePath string) (*Contents, error) {
	staging, err := os.MkdirTemp("", "gotweak-bundle-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging directory")
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := NewManager().ExtractAll(ctx, archivePath, staging); err != nil {
		return nil, err
	}

	storePath := filepath.Join(staging, fsutil.StoreFileName)
	if _, err := os.Stat(storePath); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidBundle, "%s has no %s", archivePath, fsutil.StoreFileName)
	}
	st, err := store.Open(storePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidBundle, "%s: %v", archivePath, err)
	}

	scripts, err := hook.LoadScriptsFromDir(filepath.Join(staging, fsutil.ScriptsDirName))
	if err != nil {
		return nil, err
	}

	return &Contents{Entries: st.Entries(), Scripts: scripts}, nil
}

// Merge puts every entry of c into dst, replacing entries with the same key,
// and returns the number of entries written.
func (c *Contents) Merge(dst *store.Store) int {
	for _, e := range c.Entries {
		copied := *e
		dst.Put(&copied)
	}
	return len(c.Entries)
}
