package procsnap

import (
	"path"
	"strings"
)

// bundleMarker is the application bundle suffix searched for when
// deriving the parent-application grouping key. Its first occurrence in
// a path splits "what launched this" from "what is running".
const bundleMarker = ".app"

// bundleSuffixes are the package suffixes stripped from derived process
// names, longest first so ".appex" wins over ".app".
var bundleSuffixes = []string{".appex", ".xpc", ".app"}

// processName derives the short process name. With a resolved executable
// path, the last path component is used; otherwise the first
// whitespace-delimited token of the command. Either way a trailing
// bundle suffix is stripped.
func processName(exePath, command string) string {
	var name string
	if exePath != "" {
		name = path.Base(exePath)
	} else {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		name = path.Base(fields[0])
	}
	return stripBundleSuffix(name)
}

// stripBundleSuffix removes one trailing bundle package suffix from a
// name, if present.
func stripBundleSuffix(name string) string {
	for _, suffix := range bundleSuffixes {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// parentAppName extracts the last path component before the first bundle
// marker in s. The second return value is false when s contains no
// marker.
func parentAppName(s string) (string, bool) {
	idx := strings.Index(s, bundleMarker)
	if idx < 0 {
		return "", false
	}
	prefix := s[:idx]
	if slash := strings.LastIndexByte(prefix, '/'); slash >= 0 {
		prefix = prefix[slash+1:]
	}
	if prefix == "" {
		return "", false
	}
	return prefix, true
}

// LooksLikeBundlePath reports whether p ends with, or passes through, a
// bundle package directory (.app, .xpc or .appex).
func LooksLikeBundlePath(p string) bool {
	for _, suffix := range bundleSuffixes {
		if strings.HasSuffix(p, suffix) || strings.Contains(p, suffix+"/") {
			return true
		}
	}
	return false
}

// BundleRoot walks p upward to the nearest enclosing bundle package
// directory. The second return value is false when no path component
// carries a bundle suffix.
func BundleRoot(p string) (string, bool) {
	for cur := p; cur != "/" && cur != "." && cur != ""; cur = path.Dir(cur) {
		for _, suffix := range bundleSuffixes {
			if strings.HasSuffix(cur, suffix) {
				return cur, true
			}
		}
	}
	return "", false
}

// executableFromCommand extracts an executable path from a raw command
// line: the first whitespace-delimited token, accepted only when it is
// an absolute path.
func executableFromCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	if !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	return fields[0]
}
