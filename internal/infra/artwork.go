package infra

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"
)

// ArtworkMirror downloads and caches listing artwork as local thumbnails.
type ArtworkMirror struct {
	basePath string
	baseURL  string
	size     int
	client   *http.Client
	sfg      singleflight.Group // collapses concurrent downloads of the same item
}

// NewArtworkMirror creates a mirror rooted in the user config directory.
func NewArtworkMirror(cfg *Config) (*ArtworkMirror, error) {
	path, err := getArtworkPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artwork path: %w", err)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artwork directory: %w", err)
	}

	size := cfg.Media.ThumbnailSize
	if size <= 0 {
		size = 256
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &ArtworkMirror{
		basePath: path,
		baseURL:  cfg.Media.BaseURL,
		size:     size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Mirror fetches the artwork for an item id if not already cached and
// resizes it to the configured thumbnail size. Returns the local file path.
func (m *ArtworkMirror) Mirror(itemID uint64) (string, error) {
	if m.baseURL == "" {
		return "", nil // mirroring disabled
	}

	key := fmt.Sprintf("%d", itemID)
	path, err, _ := m.sfg.Do(key, func() (interface{}, error) {
		filePath := filepath.Join(m.basePath, key+".png")

		if _, err := os.Stat(filePath); err == nil {
			return filePath, nil // cache hit
		}

		url := fmt.Sprintf("%s/items/%d/artwork.png", m.baseURL, itemID)

		resp, err := m.client.Get(url)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("bad status: %s", resp.Status)
		}

		srcImg, err := imaging.Decode(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to decode image: %w", err)
		}

		resizedImg := imaging.Resize(srcImg, m.size, m.size, imaging.Lanczos)

		if err := imaging.Save(resizedImg, filePath); err != nil {
			return "", fmt.Errorf("failed to save thumbnail: %w", err)
		}

		return filePath, nil
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

// ThumbnailPath returns the local path for an item's thumbnail.
func (m *ArtworkMirror) ThumbnailPath(itemID uint64) string {
	return filepath.Join(m.basePath, fmt.Sprintf("%d.png", itemID))
}

func getArtworkPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "MarketSync", "assets", "artwork"), nil
}
