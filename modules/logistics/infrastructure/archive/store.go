// Package archive keeps the original uploaded files.
package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
)

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Store writes files to root/<type>/<id><ext> on an afero filesystem.
type Store struct {
	fs   afero.Fs
	root string
}

func NewStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// NewOsStore archives to the local disk.
func NewOsStore(root string) *Store {
	return NewStore(afero.NewOsFs(), root)
}

func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path returns where an upload's file lives. Unsafe extensions are dropped.
func (s *Store) Path(t upload.Type, id uuid.UUID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	return filepath.Join(s.root, string(t), id.String()+ext)
}

// Save copies r into the archive and returns the stored path. A partial
// file is removed when the copy fails.
func (s *Store) Save(ctx context.Context, t upload.Type, id uuid.UUID, fileName string, r io.Reader) (string, error) {
	path := s.Path(t, id, fileName)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create archive directory")
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create archive file")
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(path)
		return "", errors.Wrap(err, "write archive file")
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(path)
		return "", errors.Wrap(err, "close archive file")
	}
	return path, nil
}

func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove archive file")
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
