// Package bridge holds the project-wide defaults shared by the client,
// configuration, and tooling packages.
package bridge

import (
	"os"
	"path/filepath"
)

const (
	// DefaultAppName names the project for config discovery and logging.
	DefaultAppName = "toolbridge"

	// DefaultEndpoint is where a locally started bridge server listens.
	DefaultEndpoint = "http://localhost:8080"

	// EndpointEnvVar overrides the bridge endpoint when no explicit value
	// is configured.
	EndpointEnvVar = "BRIDGE_ENDPOINT"
)

// DefaultConfigPath is the per-user directory searched for config.yaml.
var DefaultConfigPath = defaultConfigPath()

func defaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", DefaultAppName)
	}
	return filepath.Join(base, DefaultAppName)
}
