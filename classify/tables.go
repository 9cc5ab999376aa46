package classify

import "sort"

// Tables holds the immutable name dictionaries the classifier consults.
// They are built once at startup and shared by reference; nothing
// mutates them at runtime.
type Tables struct {
	system           map[string]struct{}
	systemPrefixes   []string
	critical         map[string]struct{}
	criticalPrefixes []string
	descriptions     map[string]string

	// descriptionKeys holds the dictionary keys ordered by descending
	// length so prefix matching prefers the most specific entry.
	descriptionKeys []string
}

// systemProcessNames are exact matches for operating system processes.
var systemProcessNames = []string{
	"launchd",
	"kernel_task",
	"xpcproxy",
	"WindowServer",
	"loginwindow",
	"logd",
	"syslogd",
	"notifyd",
	"distnoted",
	"cfprefsd",
	"securityd",
	"trustd",
	"opendirectoryd",
	"configd",
	"powerd",
	"hidd",
	"coreaudiod",
	"diskarbitrationd",
	"nsurlsessiond",
	"bluetoothd",
	"airportd",
	"apsd",
	"amfid",
	"sharingd",
	"spindump",
	"sysmond",
	"systemstats",
	"watchdogd",
	"mds",
	"mds_stores",
	"fseventsd",
	"diskimagesiod",
	"runningboardd",
	"lsd",
	"launchservicesd",
}

// systemProcessPrefixes match families of helper daemons by name prefix.
var systemProcessPrefixes = []string{
	"com.apple.",
	"mdworker",
	"kernel",
	"secd",
	"cloudd",
}

// criticalProcessNames is the subset of system processes whose
// termination would take down the session or the machine.
var criticalProcessNames = []string{
	"launchd",
	"kernel_task",
	"WindowServer",
	"loginwindow",
	"opendirectoryd",
	"securityd",
	"configd",
	"powerd",
	"watchdogd",
}

// criticalProcessPrefixes match critical families by name prefix.
var criticalProcessPrefixes = []string{
	"kernel",
}

// processDescriptions maps lowercased process names to short
// human-readable descriptions. Lookup is exact first, then by prefix in
// either direction, longest key first.
var processDescriptions = map[string]string{
	"launchd":          "System and service manager",
	"kernel_task":      "Operating system kernel",
	"xpcproxy":         "XPC service bootstrapper",
	"windowserver":     "Display and window compositor",
	"loginwindow":      "Login session manager",
	"cfprefsd":         "Preferences daemon",
	"mds":              "Search metadata server",
	"mds_stores":       "Search metadata store",
	"mdworker":         "Search metadata worker",
	"securityd":        "Security context daemon",
	"trustd":           "Certificate trust daemon",
	"opendirectoryd":   "Directory services daemon",
	"configd":          "System configuration daemon",
	"powerd":           "Power management daemon",
	"coreaudiod":       "Audio subsystem daemon",
	"diskarbitrationd": "Disk mounting daemon",
	"nsurlsessiond":    "Background network transfers",
	"bluetoothd":       "Bluetooth daemon",
	"fseventsd":        "Filesystem event logger",
	"runningboardd":    "Process lifecycle manager",
	"notifyd":          "Notification daemon",
	"distnoted":        "Distributed notification daemon",
	"logd":             "Unified logging daemon",
	"syslogd":          "System log daemon",
	"sharingd":         "Sharing services daemon",
	"apsd":             "Push notification daemon",
}

// DefaultTables builds the standard lookup tables. The result is cheap
// enough to build per call but is intended to be built once and shared.
func DefaultTables() *Tables {
	t := &Tables{
		system:           make(map[string]struct{}, len(systemProcessNames)),
		systemPrefixes:   systemProcessPrefixes,
		critical:         make(map[string]struct{}, len(criticalProcessNames)),
		criticalPrefixes: criticalProcessPrefixes,
		descriptions:     processDescriptions,
	}
	for _, name := range systemProcessNames {
		t.system[name] = struct{}{}
	}
	for _, name := range criticalProcessNames {
		t.critical[name] = struct{}{}
	}

	t.descriptionKeys = make([]string, 0, len(t.descriptions))
	for key := range t.descriptions {
		t.descriptionKeys = append(t.descriptionKeys, key)
	}
	sort.Slice(t.descriptionKeys, func(i, j int) bool {
		a, b := t.descriptionKeys[i], t.descriptionKeys[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return t
}

// IsSystem reports whether name matches the system set exactly or by
// prefix.
func (t *Tables) IsSystem(name string) bool {
	if _, ok := t.system[name]; ok {
		return true
	}
	return hasAnyPrefix(name, t.systemPrefixes)
}

// IsCritical reports whether name matches the critical subset exactly or
// by prefix.
func (t *Tables) IsCritical(name string) bool {
	if _, ok := t.critical[name]; ok {
		return true
	}
	return hasAnyPrefix(name, t.criticalPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}
