// Package version holds the release version reported by the CLI and sent in
// the User-Agent of upstream requests.
package version

// Current is overridden at build time with
// -ldflags "-X github.com/estat-master/estat-master/internal/version.Current=<semver>".
var Current = "0.1.0"

// UserAgent is the User-Agent sent to e-Stat.
func UserAgent() string {
	return "estat-master/" + Current
}
