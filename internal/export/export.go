// Package export renders assembled documents to files.
//
// Every export gets a uuid and a BLAKE3 digest of the rendered (uncompressed)
// bytes, so two exports of the same document can be compared without
// re-rendering.
package export

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/Bookbinder/core/compose"
	"github.com/FocuswithJustin/Bookbinder/core/errors"
)

// Injectable functions for testing.
var (
	xzNewWriter  = func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) }
	osMkdirAll   = os.MkdirAll
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
	newExportID  = uuid.NewString
)

// Options controls an export.
type Options struct {
	// Format is the output markup.
	Format compose.Format

	// Path is the destination file. Empty means Writer.
	Path string

	// Writer receives the output when Path is empty.
	Writer io.Writer

	// Compress wraps the output in xz.
	Compress bool
}

// Result describes a finished export.
type Result struct {
	ID       string `json:"id"`
	Digest   string `json:"digest"`
	Bytes    int    `json:"bytes"`
	Written  int    `json:"written"`
	Path     string `json:"path,omitempty"`
	Format   string `json:"format,omitempty"`
	Compress bool   `json:"compress,omitempty"`
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Write renders doc and writes it to opts.Path or opts.Writer.
func Write(ctx context.Context, doc *compose.Document, opts Options) (*Result, error) {
	if opts.Path == "" && opts.Writer == nil {
		return nil, errors.NewValidation("path", "no output path or writer")
	}

	var rendered bytes.Buffer
	if err := compose.Render(&rendered, doc, opts.Format); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		ID:       newExportID(),
		Digest:   Digest(rendered.Bytes()),
		Bytes:    rendered.Len(),
		Path:     opts.Path,
		Format:   string(opts.Format),
		Compress: opts.Compress,
	}

	out := rendered.Bytes()
	if opts.Compress {
		var err error
		if out, err = compressBytes(out); err != nil {
			return nil, err
		}
	}
	res.Written = len(out)

	if opts.Path == "" {
		if _, err := opts.Writer.Write(out); err != nil {
			return nil, errors.NewIO("write", "", err)
		}
		return res, nil
	}
	if err := writeFile(opts.Path, out); err != nil {
		return nil, err
	}
	return res, nil
}

// compressBytes returns data xz-compressed.
func compressBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	xw, err := xzNewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create xz writer")
	}
	if _, err := xw.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to compress")
	}
	if err := xw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish xz stream")
	}
	return buf.Bytes(), nil
}

// WriteData writes data to path, xz-compressed when compress is set. The
// digest covers data as given.
func WriteData(path string, data []byte, compress bool) (*Result, error) {
	res := &Result{
		ID:       newExportID(),
		Digest:   Digest(data),
		Bytes:    len(data),
		Path:     path,
		Compress: compress,
	}
	out := data
	if compress {
		var err error
		if out, err = compressBytes(data); err != nil {
			return nil, err
		}
	}
	res.Written = len(out)
	if err := writeFile(path, out); err != nil {
		return nil, err
	}
	return res, nil
}

// writeFile writes through a temp file in the same directory so readers
// never see a partial file.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := osMkdirAll(dir, 0o755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}

	tmp, err := osCreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIO("close", path, err)
	}
	if err := osRename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
