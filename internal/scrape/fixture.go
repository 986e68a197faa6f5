package scrape

import (
	"context"
	"crypto/sha1" //nolint:gosec // fixture naming, not security
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FixtureConnector serves pages from disk for offline runs. Each page lives
// at <dir>/<sha1(url)>.html.
type FixtureConnector struct {
	dir string
}

// NewFixtureConnector reads fixtures from dir.
func NewFixtureConnector(dir string) *FixtureConnector {
	return &FixtureConnector{dir: dir}
}

// FixturePath returns where the fixture for url is stored under dir.
func FixturePath(dir, url string) string {
	sum := sha1.Sum([]byte(url)) //nolint:gosec
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".html")
}

func (f *FixtureConnector) FetchListingPage(_ context.Context, url string) (string, error) {
	return f.read(url)
}

func (f *FixtureConnector) FetchBrokerPage(_ context.Context, url string) (string, error) {
	return f.read(url)
}

func (f *FixtureConnector) read(url string) (string, error) {
	data, err := os.ReadFile(FixturePath(f.dir, url))
	if errors.Is(err, fs.ErrNotExist) {
		return "", eris.Errorf("scrape: no fixture for %s", url)
	}
	if err != nil {
		return "", eris.Wrapf(err, "scrape: read fixture for %s", url)
	}
	return string(data), nil
}
