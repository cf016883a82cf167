// Package buildinfo carries version metadata stamped in at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/cemtembot/core/buildinfo.Version=v0.4.0' \
//	  -X 'github.com/m3rciful/cemtembot/core/buildinfo.Commit=abcdef0'" ./cmd/cemtembot
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is RFC3339; empty for local builds.
	Date = ""
)

// String renders "version (commit)" for banners and /status.
func String() string {
	return Version + " (" + Commit + ")"
}
