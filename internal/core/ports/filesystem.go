package ports

import "context"

// FileSystem provides the file operations build steps use.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// MakeDir creates path and any missing parents.
	MakeDir(ctx context.Context, path string) error
	// Remove deletes path recursively. A missing path is not an error.
	Remove(ctx context.Context, path string) error
	// CopyTree copies the directory tree at src into dst.
	CopyTree(ctx context.Context, src, dst string) error
	// WriteFile replaces the file at path with content, creating parents.
	WriteFile(ctx context.Context, path, content string) error
}
