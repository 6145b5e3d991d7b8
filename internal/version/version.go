// Package version carries build metadata stamped in with -ldflags, plus the
// per-process instance id reported in logs and telemetry.
package version

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Set via: -ldflags "-X metaproxy/internal/version.Version=... -X ...GitCommit=... -X ...BuildDate=..."
var (
	Version   = "unknown" // semantic version or short commit
	BuildDate = "unknown" // ISO 8601 UTC build time
	GitCommit = "unknown"
)

// Info holds all build metadata and runtime information.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns build metadata and runtime information. The instance id and
// hostname are fixed on first call.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.NewString(),
			Hostname:   getHostname(),
		}
	})
	return info
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

// String formats version info for CLI display.
func (i Info) String() string {
	return fmt.Sprintf("metaproxy version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}

// UserAgent is sent on outbound catalog requests.
func (i Info) UserAgent() string {
	return "metaproxy/" + i.Version
}
