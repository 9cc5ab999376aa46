package cache

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/classify"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

// IconSize is the square edge length icons are normalized to.
const IconSize = 32

// iconExtensions are tried, in order, when the bundle metadata names an
// icon file without an extension.
var iconExtensions = []string{".png", ".icns"}

// IconCache resolves and caches per-bundle icons, keyed by bundle root
// path. Lookups coalesce, so a burst of rows for the same application
// decodes its icon once. Bundles without a usable icon are recorded as
// misses and not re-probed.
type IconCache struct {
	cache  *Async[string, image.Image]
	logger *slog.Logger

	// loadIcon decodes a bundle's icon. Overridable for testing.
	loadIcon func(root string) (image.Image, error)
}

// NewIconCache creates an IconCache holding up to capacity icons. A nil
// logger discards log output.
func NewIconCache(capacity int, logger *slog.Logger) *IconCache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &IconCache{
		cache:  NewAsync[string, image.Image](capacity),
		logger: logger,
	}
	c.loadIcon = loadBundleIcon
	return c
}

// Icon returns the icon for the bundle enclosing the given executable
// path. The error is ErrKnownMiss for bundles already known to carry no
// usable icon, and nil alongside a non-nil image on success.
func (c *IconCache) Icon(ctx context.Context, executablePath string) (image.Image, error) {
	root, ok := procsnap.BundleRoot(executablePath)
	if !ok {
		return nil, fmt.Errorf("cache: %q is not inside a bundle", executablePath)
	}
	img, err := c.cache.GetOrFetch(ctx, root, func(context.Context) (image.Image, error) {
		icon, err := c.loadIcon(root)
		if err != nil {
			c.logger.Debug("icon unavailable", "bundle", root, "error", err)
			return nil, err
		}
		return icon, nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// loadBundleIcon reads the bundle's metadata for its icon file name,
// decodes the image, and normalizes it to IconSize.
func loadBundleIcon(root string) (image.Image, error) {
	info, err := classify.ReadBundleInfo(root)
	if err != nil {
		return nil, err
	}
	if info.IconFile == "" {
		return nil, fmt.Errorf("cache: bundle %s declares no icon", root)
	}

	resources := filepath.Join(root, "Contents", "Resources")
	candidates := []string{filepath.Join(resources, info.IconFile)}
	if filepath.Ext(info.IconFile) == "" {
		candidates = nil
		for _, ext := range iconExtensions {
			candidates = append(candidates, filepath.Join(resources, info.IconFile+ext))
		}
	}

	var lastErr error
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			lastErr = err
			continue
		}
		img, err := imaging.Open(p)
		if err != nil {
			lastErr = err
			continue
		}
		return imaging.Fit(img, IconSize, IconSize, imaging.Lanczos), nil
	}
	return nil, fmt.Errorf("cache: no decodable icon for bundle %s: %w", root, lastErr)
}
