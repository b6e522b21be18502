package config

import "time"

// Application constants
const (
	AppName    = "opsdash"
	AppVersion = "1.0.0"

	DateLayout = "2006-01-02"

	DefaultLogLevel = "info"
	DefaultLogFile  = "logs/opsdash.log"

	DefaultRateLimit = 50 // requests per second
	DefaultBurstSize = 100

	DefaultUploadMaxBytes = 32 << 20

	DefaultSampleSeed  = 42
	DefaultSampleEpoch = "2024-01-01"
	DefaultSampleDays  = 180

	DefaultCookieName     = "opsdash_session"
	DefaultSessionIdleTTL = 2 * time.Hour

	DefaultFilenamePrefix = "operations_report"
)

// DefaultDepartments is the department list used by the sample generator
var DefaultDepartments = []string{
	"Operations",
	"Finance",
	"HR",
	"IT",
	"Customer Service",
	"Logistics",
}
