// Package spreadsheet reads uploaded workbooks and delimited text files as
// re-readable row sources.
package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeZip  = "application/zip"
)

// Open sniffs the file content and returns the matching source. Legacy .xls
// workbooks and other binaries are rejected with upload.ErrUnsupportedFile.
func Open(fs afero.Fs, path string, sheet string) (upload.Source, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	mt, err := mimetype.DetectReader(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case mt.Is(mimeXLSX), mt.Is(mimeZip) && ext == ".xlsx":
		return NewXLSXSource(fs, path, sheet), nil
	case isText(mt):
		return NewCSVSource(fs, path), nil
	default:
		return nil, fmt.Errorf("%w: %s (%s)", upload.ErrUnsupportedFile, filepath.Base(path), mt.String())
	}
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
