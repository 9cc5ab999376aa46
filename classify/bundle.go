package classify

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"
)

// BundleInfo is the metadata read from a bundle's property list.
type BundleInfo struct {
	// DisplayName is CFBundleDisplayName, falling back to CFBundleName.
	DisplayName string

	// Identifier is CFBundleIdentifier.
	Identifier string

	// IconFile is CFBundleIconFile, used by the icon cache. May lack a
	// file extension.
	IconFile string
}

// bundlePlist mirrors the property-list keys of interest.
type bundlePlist struct {
	DisplayName string `plist:"CFBundleDisplayName"`
	Name        string `plist:"CFBundleName"`
	Identifier  string `plist:"CFBundleIdentifier"`
	IconFile    string `plist:"CFBundleIconFile"`
}

// ReadBundleInfo reads the metadata file of the bundle rooted at root.
// The conventional Contents/Info.plist location is tried first, then a
// flat Info.plist at the root for bundles without a Contents directory.
func ReadBundleInfo(root string) (BundleInfo, error) {
	paths := []string{
		filepath.Join(root, "Contents", "Info.plist"),
		filepath.Join(root, "Info.plist"),
	}

	var lastErr error
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			lastErr = err
			continue
		}

		var raw bundlePlist
		if _, err := plist.Unmarshal(data, &raw); err != nil {
			return BundleInfo{}, fmt.Errorf("classify: parse %s: %w", p, err)
		}

		info := BundleInfo{
			DisplayName: raw.DisplayName,
			Identifier:  raw.Identifier,
			IconFile:    raw.IconFile,
		}
		if info.DisplayName == "" {
			info.DisplayName = raw.Name
		}
		return info, nil
	}

	return BundleInfo{}, fmt.Errorf("classify: no metadata file under %s: %w", root, lastErr)
}
