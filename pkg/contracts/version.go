// Package contracts holds the versioned contracts shared by the server, the
// CLI and clients of the HTTP API.
package contracts

const (
	// APIVersion is the version of the HTTP API under /api
	APIVersion = "v1"

	// DataFormatVersion identifies the dataset column layout accepted on
	// upload and written by exports
	DataFormatVersion = "v1"
)

// GitCommit is set during build using ldflags
var GitCommit = "unknown"
