package version

// Name identifies the service in logs and the /api/version response.
const Name = "duel-arena"

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/ericogr/duel-arena/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
	Dirty   = "false"
)

// Info returns the build metadata as a flat map suitable for JSON output.
func Info() map[string]string {
	return map[string]string{
		"name":    Name,
		"version": Version,
		"commit":  Commit,
		"date":    Date,
		"dirty":   Dirty,
	}
}
