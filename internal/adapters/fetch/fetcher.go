// Package fetch retrieves remote artifacts into a shared cache directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// FetchTag is the build log tag for artifact records.
const FetchTag = "FETCH"

// Fetcher implements ports.ArtifactFetcher over HTTP.
type Fetcher struct {
	client *http.Client
	logger ports.Logger
	group  singleflight.Group
}

// NewFetcher creates a Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, logger ports.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// Fetch makes the artifact at rawURL available as dir/<basename> and returns
// that path. An artifact already in dir is not downloaded again. Failures
// are not retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := artifactName(rawURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	log := ports.BuildLogFromContext(ctx)

	v, err, _ := f.group.Do(dest, func() (any, error) {
		if info, statErr := os.Stat(dest); statErr == nil && info.Mode().IsRegular() {
			if err := log.Record(FetchTag, fmt.Sprintf("cached %s", dest)); err != nil {
				return "", err
			}
			return dest, nil
		}
		return f.download(ctx, log, rawURL, dest)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Fetcher) download(ctx context.Context, log ports.BuildLog, rawURL, dest string) (string, error) {
	if err := log.Record(FetchTag, fmt.Sprintf("get %s", rawURL)); err != nil {
		return "", err
	}
	if f.logger != nil {
		f.logger.Info(fmt.Sprintf("downloading %s", rawURL))
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fetchFailed(err, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fetchFailed(err, rawURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fetchFailed(err, rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := zerr.With(fetchFailed(fmt.Errorf("unexpected status %s", resp.Status), rawURL), "status", resp.StatusCode)
		return "", err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.part")
	if err != nil {
		return "", fetchFailed(err, rawURL)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	digest := xxhash.New()
	size, copyErr := io.Copy(io.MultiWriter(tmp, digest), resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fetchFailed(err, rawURL)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return "", fetchFailed(err, rawURL)
	}

	msg := fmt.Sprintf("stored %s (%s, xxh64 %016x)", dest, humanize.Bytes(uint64(size)), digest.Sum64())
	if err := log.Record(FetchTag, msg); err != nil {
		return "", err
	}
	return dest, nil
}

// artifactName derives the cache file name from the last path element of
// the URL.
func artifactName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fetchFailed(err, rawURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fetchFailed(errors.New("not an absolute URL"), rawURL)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fetchFailed(errors.New("URL has no file name"), rawURL)
	}
	return name, nil
}

func fetchFailed(err error, rawURL string) error {
	return zerr.With(errors.Join(domain.ErrArtifactFetchFailed, err), "url", rawURL)
}
