package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return "sayback " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent is the HTTP client identifier sent with uploads and downloads.
func UserAgent() string {
	return "sayback/" + Version
}
