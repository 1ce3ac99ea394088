package ports

import "context"

// ArtifactFetcher retrieves remote artifacts into a local cache directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type ArtifactFetcher interface {
	// Fetch makes the artifact at url available in dir and returns its path.
	// An artifact already present in dir is not downloaded again.
	Fetch(ctx context.Context, url, dir string) (string, error)
}
