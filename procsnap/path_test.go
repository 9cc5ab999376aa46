package procsnap

import "testing"

func TestProcessName(t *testing.T) {
	tests := []struct {
		name    string
		exePath string
		command string
		want    string
	}{
		{
			name:    "from resolved path",
			exePath: "/Applications/Safari.app/Contents/MacOS/Safari",
			want:    "Safari",
		},
		{
			name:    "bundle suffix stripped",
			exePath: "/Applications/Notes.app",
			want:    "Notes",
		},
		{
			name:    "xpc suffix stripped",
			exePath: "/System/Library/Frameworks/Foo.xpc",
			want:    "Foo",
		},
		{
			name:    "from command first token",
			command: "/usr/libexec/xpcproxy com.example.service",
			want:    "xpcproxy",
		},
		{
			name:    "relative command token",
			command: "python3 serve.py",
			want:    "python3",
		},
		{
			name:    "empty command",
			command: "   ",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := processName(tt.exePath, tt.command); got != tt.want {
				t.Errorf("processName(%q, %q) = %q, want %q", tt.exePath, tt.command, got, tt.want)
			}
		})
	}
}

func TestParentAppName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{
			name:   "application bundle",
			in:     "/Applications/Safari.app/Contents/MacOS/Safari",
			want:   "Safari",
			wantOK: true,
		},
		{
			name:   "first marker wins for nested bundles",
			in:     "/Applications/Mail.app/Contents/PlugIns/Extra.app/Contents/MacOS/Extra",
			want:   "Mail",
			wantOK: true,
		},
		{
			name:   "extension bundle",
			in:     "/Applications/Photos.appex/Contents/MacOS/Photos",
			want:   "Photos",
			wantOK: true,
		},
		{
			name: "no bundle marker",
			in:   "/usr/libexec/xpcproxy",
		},
		{
			name: "marker with empty component",
			in:   ".app/whatever",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parentAppName(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parentAppName(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("parentAppName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExecutableFromCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/usr/bin/top -l 1", "/usr/bin/top"},
		{"/Applications/Safari.app/Contents/MacOS/Safari", "/Applications/Safari.app/Contents/MacOS/Safari"},
		{"login -pf user", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := executableFromCommand(tt.in); got != tt.want {
			t.Errorf("executableFromCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
