package version

import "testing"

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
	if s := String(); s != Version {
		t.Fatalf("String() = %q, want Version %q", s, Version)
	}
}

func TestVersionLinkTimeOverride(t *testing.T) {
	// String must track the Version var so -ldflags -X takes effect.
	old := Version
	defer func() { Version = old }()
	Version = "9.9.9-release"
	if s := String(); s != "9.9.9-release" {
		t.Fatalf("String() after override = %q", s)
	}
}
