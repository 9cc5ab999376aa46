// Package classify maps process records to a source tag, system/critical
// flags, and a human-readable description. Name dictionaries are
// immutable and shared; only the bundle-metadata fallback is expensive,
// and it goes through a bounded cache.
package classify

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
)

// UnknownProcessDescription is the fixed fallback when no dictionary
// entry and no bundle metadata resolve a process.
const UnknownProcessDescription = "Unknown process"

// currentAppAliases are the case-insensitive parent-application names
// that mean "this application".
var currentAppAliases = []string{"processpilot", "process pilot"}

// systemPathPrefixes mark executables owned by the operating system.
var systemPathPrefixes = []string{
	"/System/",
	"/usr/libexec/",
	"/usr/sbin/",
	"/sbin/",
	"/Library/Apple/",
}

// commandLinePathPrefixes mark executables from command-line tool
// locations.
var commandLinePathPrefixes = []string{
	"/usr/local/",
	"/usr/bin/",
	"/bin/",
	"/opt/",
}

// DescriptionCache is the bounded cache consulted before bundle-metadata
// reads. Get reports (value, hit, knownMiss); a known miss means the key
// resolved to nothing before and must not be re-probed.
type DescriptionCache interface {
	Get(key string) (string, bool, bool)
	Put(key, value string)
	MarkMiss(key string)
}

// Classifier resolves source, flags and description for process records.
// Dictionary lookups are cheap and uncached; bundle-metadata lookups go
// through the injected DescriptionCache. Safe for concurrent use as long
// as the cache implementation is.
type Classifier struct {
	tables *Tables
	cache  DescriptionCache
	logger *slog.Logger

	// readBundle loads bundle metadata from disk. Overridable for
	// testing.
	readBundle func(root string) (BundleInfo, error)
}

// NewClassifier creates a Classifier around the given tables and
// description cache. A nil cache disables the bundle-metadata fallback;
// a nil logger discards log output.
func NewClassifier(tables *Tables, cache DescriptionCache, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Classifier{
		tables:     tables,
		cache:      cache,
		logger:     logger,
		readBundle: ReadBundleInfo,
	}
}

// Classify fills in the record's system/critical flags, source tag and
// description. Classification never fails; unresolved processes get
// SourceUnknown and the fixed fallback description.
func (c *Classifier) Classify(rec *procsnap.ProcessRecord) {
	rec.IsSystem = c.tables.IsSystem(rec.Name)
	rec.IsCritical = c.tables.IsCritical(rec.Name)
	rec.Source = c.resolveSource(rec.IsSystem, rec.ParentApp, rec.ExecutablePath)
	rec.Description = c.resolveDescription(rec.Name, rec.ExecutablePath)
}

// resolveSource applies the fixed resolution order: system flag first,
// then current-app aliases, then path-based rules.
func (c *Classifier) resolveSource(isSystem bool, parentApp, exePath string) procsnap.Source {
	if isSystem {
		return procsnap.SourceSystem
	}
	if isCurrentAppAlias(parentApp) {
		return procsnap.SourceCurrentApp
	}
	if exePath == "" {
		return procsnap.SourceUnknown
	}
	if hasAnyPrefix(exePath, systemPathPrefixes) {
		return procsnap.SourceSystem
	}
	if procsnap.LooksLikeBundlePath(exePath) {
		if containsCurrentAppBundle(exePath) {
			return procsnap.SourceCurrentApp
		}
		return procsnap.SourceApplication
	}
	if hasAnyPrefix(exePath, commandLinePathPrefixes) {
		return procsnap.SourceCommandLine
	}
	return procsnap.SourceUnknown
}

// resolveDescription tries the static dictionary (exact, then prefix in
// either direction, longest key first), then cached bundle metadata, and
// finally the fixed fallback.
func (c *Classifier) resolveDescription(name, exePath string) string {
	lower := strings.ToLower(name)
	if desc, ok := c.tables.descriptions[lower]; ok {
		return desc
	}
	for _, key := range c.tables.descriptionKeys {
		if strings.HasPrefix(lower, key) || strings.HasPrefix(key, lower) {
			return c.tables.descriptions[key]
		}
	}
	if exePath != "" && procsnap.LooksLikeBundlePath(exePath) {
		if desc, ok := c.bundleDescription(exePath); ok {
			return desc
		}
	}
	return UnknownProcessDescription
}

// bundleDescription resolves a description from bundle metadata, going
// through the bounded cache keyed by the bundle root path.
func (c *Classifier) bundleDescription(exePath string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	root, ok := procsnap.BundleRoot(exePath)
	if !ok {
		return "", false
	}

	if desc, hit, miss := c.cache.Get(root); hit {
		return desc, true
	} else if miss {
		return "", false
	}

	info, err := c.readBundle(root)
	if err != nil {
		c.logger.Debug("bundle metadata unavailable", "bundle", root, "error", err)
		c.cache.MarkMiss(root)
		return "", false
	}

	desc, ok := composeBundleDescription(info)
	if !ok {
		c.cache.MarkMiss(root)
		return "", false
	}
	c.cache.Put(root, desc)
	return desc, true
}

// composeBundleDescription builds "DisplayName (Identifier)",
// "DisplayName" or "Identifier" depending on which fields are present.
func composeBundleDescription(info BundleInfo) (string, bool) {
	switch {
	case info.DisplayName != "" && info.Identifier != "":
		return fmt.Sprintf("%s (%s)", info.DisplayName, info.Identifier), true
	case info.DisplayName != "":
		return info.DisplayName, true
	case info.Identifier != "":
		return info.Identifier, true
	default:
		return "", false
	}
}

// isCurrentAppAlias reports whether the parent-application name refers
// to this application, case-insensitively.
func isCurrentAppAlias(parentApp string) bool {
	if parentApp == "" {
		return false
	}
	lower := strings.ToLower(parentApp)
	for _, alias := range currentAppAliases {
		if lower == alias {
			return true
		}
	}
	return false
}

// containsCurrentAppBundle reports whether the path runs through this
// application's own bundle.
func containsCurrentAppBundle(p string) bool {
	lower := strings.ToLower(p)
	for _, alias := range currentAppAliases {
		if strings.Contains(lower, alias+".app") {
			return true
		}
	}
	return false
}
