package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, uint64(42), cfg.Sample.Seed)
				assert.Equal(t, 180, cfg.Sample.Days)
				assert.Equal(t, DefaultDepartments, cfg.Sample.Departments)
				assert.Equal(t, "opsdash_session", cfg.Session.CookieName)
				assert.Equal(t, "operations_report", cfg.Export.FilenamePrefix)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "file overrides defaults",
			yaml: "server:\n  port: 9000\nsample:\n  seed: 7\n  days: 30\nlogging:\n  output: BOTH\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, uint64(7), cfg.Sample.Seed)
				assert.Equal(t, 30, cfg.Sample.Days)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset fields keep defaults")
			},
		},
		{
			name: "env overrides file",
			yaml: "server:\n  port: 9000\n",
			env: map[string]string{
				"OPSDASH_SERVER_PORT":        "9100",
				"OPSDASH_SAMPLE_DEPARTMENTS": "Ops,Finance",
				"OPSDASH_SESSION_IDLE_TTL":   "45m",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9100, cfg.Server.Port)
				assert.Equal(t, []string{"Ops", "Finance"}, cfg.Sample.Departments)
				assert.Equal(t, 45*time.Minute, cfg.Session.IdleTTL)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"OPSDASH_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "invalid epoch",
			yaml:    "sample:\n  epoch: 2024/01/01\n",
			wantErr: "invalid sample epoch",
		},
		{
			name:    "non-positive days",
			env:     map[string]string{"OPSDASH_SAMPLE_DAYS": "0"},
			wantErr: "sample days must be positive",
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"OPSDASH_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: "invalid trace exporter",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"OPSDASH_UPLOAD_MAX_BYTES": "lots"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "malformed yaml",
			yaml:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}

			cfg, err := LoadFrom(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	path := writeYAML(t, "export:\n  filename_prefix: weekly\n")
	t.Setenv("OPSDASH_CONFIG", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "weekly", cfg.Export.FilenamePrefix)
}

func TestSampleConfig_EpochTime(t *testing.T) {
	epoch, err := Default().Sample.EpochTime()

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), epoch)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.validate())
}

func TestDefault_DepartmentsAreCopied(t *testing.T) {
	cfg := Default()
	cfg.Sample.Departments[0] = "Changed"
	assert.Equal(t, "Operations", DefaultDepartments[0])
}
