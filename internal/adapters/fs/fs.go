// Package fs provides the file system operations used by build steps.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
)

// FSTag is the build log tag for file system records.
const FSTag = "FS"

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// FileSystem implements ports.FileSystem on the local disk.
type FileSystem struct{}

// New creates a new FileSystem.
func New() *FileSystem {
	return &FileSystem{}
}

// MakeDir creates path and any missing parents.
func (f *FileSystem) MakeDir(ctx context.Context, path string) error {
	if err := ports.BuildLogFromContext(ctx).Record(FSTag, "mkdir "+path); err != nil {
		return err
	}
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", path)
	}
	return nil
}

// Remove deletes path and everything below it. A missing path is not an error.
func (f *FileSystem) Remove(ctx context.Context, path string) error {
	if err := ports.BuildLogFromContext(ctx).Record(FSTag, "remove "+path); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove path"), "path", path)
	}
	return nil
}

// WriteFile replaces the file at path with content, creating missing parent
// directories.
func (f *FileSystem) WriteFile(ctx context.Context, path, content string) error {
	msg := fmt.Sprintf("write %s (%s)", path, humanize.Bytes(uint64(len(content))))
	if err := ports.BuildLogFromContext(ctx).Record(FSTag, msg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
	}
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil { //nolint:gosec // build outputs are world-readable
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
	}
	return nil
}

// CopyTree copies every file below src into dst, creating directories as
// needed. Existing files in dst are overwritten, others are left in place.
// File modes are preserved.
func (f *FileSystem) CopyTree(ctx context.Context, src, dst string) error {
	log := ports.BuildLogFromContext(ctx)
	if err := log.Record(FSTag, fmt.Sprintf("copy %s -> %s", src, dst)); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to copy tree"), "src", src)
	}
	if !info.IsDir() {
		return zerr.With(zerr.New("copy source is not a directory"), "src", src)
	}

	var files int
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, dirPerm)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		files++
		return copyFile(path, target)
	})
	if err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "failed to copy tree"), "src", src), "dst", dst)
	}

	return log.Record(FSTag, fmt.Sprintf("copied %d file(s) into %s", files, dst))
}

func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // paths come from the buildfile
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // paths come from the buildfile
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode().Perm())
}
