package version

import (
	"regexp"
	"strings"
	"testing"
)

func TestCurrentIsSemverWithoutVPrefix(t *testing.T) {
	t.Helper()

	semver := regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
	if !semver.MatchString(Current) {
		t.Fatalf("Current=%q must match <major>.<minor>.<patch>", Current)
	}
}

func TestUserAgentCarriesVersion(t *testing.T) {
	if ua := UserAgent(); !strings.HasSuffix(ua, "/"+Current) {
		t.Fatalf("UserAgent()=%q must end with the current version", ua)
	}
}
