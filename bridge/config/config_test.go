package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	// Viper state is global; start each test from a clean slate
	viper.Reset()

	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "toolbridge-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	// Bridge defaults
	assert.Equal(suite.T(), "", cfg.Bridge.Endpoint)
	assert.Equal(suite.T(), 3, cfg.Bridge.MaxRetries)
	assert.Equal(suite.T(), 500*time.Millisecond, cfg.Bridge.RetryDelay)
	assert.Equal(suite.T(), 60*time.Second, cfg.Bridge.CallTimeout)
	assert.Equal(suite.T(), 5, cfg.Bridge.ToolConcurrency)
	assert.True(suite.T(), cfg.Bridge.SchemaCacheEnabled)
	assert.Equal(suite.T(), 128, cfg.Bridge.SchemaCacheCapacity)
	assert.Equal(suite.T(), 5*time.Minute, cfg.Bridge.SchemaCacheTTL)
	assert.False(suite.T(), cfg.Bridge.RateLimitEnabled)
	assert.Equal(suite.T(), 10, cfg.Bridge.RateLimitCapacity)
	assert.Equal(suite.T(), time.Second, cfg.Bridge.RateLimitRefillRate)

	// Session defaults
	assert.Equal(suite.T(), 100, cfg.Session.MaxIdleConns)
	assert.Equal(suite.T(), 16, cfg.Session.MaxIdleConnsPerHost)
	assert.Equal(suite.T(), 90*time.Second, cfg.Session.IdleConnTimeout)

	// Registry defaults
	assert.Empty(suite.T(), cfg.Registry.AllowedTools)
	assert.Empty(suite.T(), cfg.Registry.DeniedTools)
	assert.False(suite.T(), cfg.Registry.ValidateArgs)

	// Telemetry defaults
	assert.True(suite.T(), cfg.Telemetry.EnableTracing)
	assert.True(suite.T(), cfg.Telemetry.EnableMetrics)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
bridge:
  endpoint: "http://bridge.internal:9090"
  max_retries: 5
  retry_delay: "200ms"
  call_timeout: "10s"
registry:
  allowed_tools:
    - "Read"
    - "Glob"
  validate_args: true
`

	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "http://bridge.internal:9090", cfg.Bridge.Endpoint)
	assert.Equal(suite.T(), 5, cfg.Bridge.MaxRetries)
	assert.Equal(suite.T(), 200*time.Millisecond, cfg.Bridge.RetryDelay)
	assert.Equal(suite.T(), 10*time.Second, cfg.Bridge.CallTimeout)
	assert.Equal(suite.T(), []string{"Read", "Glob"}, cfg.Registry.AllowedTools)
	assert.True(suite.T(), cfg.Registry.ValidateArgs)

	// Sections absent from the file keep their defaults
	assert.Equal(suite.T(), 5, cfg.Bridge.ToolConcurrency)
	assert.Equal(suite.T(), 100, cfg.Session.MaxIdleConns)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	// Explicit paths that do not exist are an error
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
bridge:
  endpoint: "http://bridge.internal:9090"
  max_retries: 5
  invalid_yaml: [unclosed bracket
`

	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	err := os.WriteFile(configFile, []byte(malformedContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigEnvOverride() {
	suite.T().Setenv("BRIDGE_ENDPOINT", "http://elsewhere:7070")
	suite.T().Setenv("BRIDGE_MAX_RETRIES", "7")
	suite.T().Setenv("BRIDGE_RETRY_DELAY", "250ms")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "http://elsewhere:7070", cfg.Bridge.Endpoint)
	assert.Equal(suite.T(), 7, cfg.Bridge.MaxRetries)
	assert.Equal(suite.T(), 250*time.Millisecond, cfg.Bridge.RetryDelay)
}

func (suite *ConfigTestSuite) TestAppConfigGlobal() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	// AppConfig should be set
	assert.Equal(suite.T(), cfg.Bridge.MaxRetries, AppConfig.Bridge.MaxRetries)
	assert.Equal(suite.T(), cfg.Bridge.CallTimeout, AppConfig.Bridge.CallTimeout)
}

// TestConfigTypes tests the configuration type definitions
func TestConfigTypes(t *testing.T) {
	config := Config{}

	assert.IsType(t, BridgeConfig{}, config.Bridge)
	assert.IsType(t, SessionConfig{}, config.Session)
	assert.IsType(t, RegistryConfig{}, config.Registry)
	assert.IsType(t, TelemetryConfig{}, config.Telemetry)

	bridgeConfig := BridgeConfig{}
	assert.IsType(t, "", bridgeConfig.Endpoint)
	assert.IsType(t, 0, bridgeConfig.MaxRetries)
	assert.IsType(t, time.Duration(0), bridgeConfig.RetryDelay)
	assert.IsType(t, time.Duration(0), bridgeConfig.CallTimeout)

	registryConfig := RegistryConfig{}
	assert.IsType(t, []string(nil), registryConfig.AllowedTools)
	assert.IsType(t, false, registryConfig.ValidateArgs)
}

// TestWatchReloadsConfig exercises the fsnotify-backed reload path.
func TestWatchReloadsConfig(t *testing.T) {
	viper.Reset()

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("bridge:\n  max_retries: 3\n"), 0o644))

	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Bridge.MaxRetries)

	changed := make(chan int, 4)
	Watch(func(e fsnotify.Event, cfg *Config) {
		changed <- cfg.Bridge.MaxRetries
	})

	require.NoError(t, os.WriteFile(configFile, []byte("bridge:\n  max_retries: 9\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changed:
			if got == 9 {
				assert.Equal(t, 9, AppConfig.Bridge.MaxRetries)
				return
			}
			// a truncate event may deliver the old value first
		case <-deadline:
			t.Fatal("config change notification never arrived")
		}
	}
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	viper.Reset()

	for i := 0; i < b.N; i++ {
		cfg, err := LoadConfig("")
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}

// BenchmarkLoadConfigWithFile benchmarks config loading from file
func BenchmarkLoadConfigWithFile(b *testing.B) {
	viper.Reset()

	tempDir, err := os.MkdirTemp("", "toolbridge-bench-*")
	if err != nil {
		b.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	configContent := `
bridge:
  endpoint: "http://localhost:8080"
  max_retries: 4
`

	configFile := filepath.Join(tempDir, "config.yaml")
	err = os.WriteFile(configFile, []byte(configContent), 0o644)
	if err != nil {
		b.Fatal(err)
	}

	for i := 0; i < b.N; i++ {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}
