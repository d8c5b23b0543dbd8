// Package version carries the build information stamped in by the release
// pipeline via -ldflags.
package version

var (
	Version = "dev-0.0.0"
	Commit  = "000000000000000000000000000000000badf00d"
	Date    = "1970-01-01T00:00:01Z"
	BuiltBy = "dev"
)

// ShortCommit returns a short commit hash. Commit may be stamped with
// anything, including an empty string.
func ShortCommit() string {
	if len(Commit) < 6 {
		return Commit
	}
	return Commit[:6]
}
