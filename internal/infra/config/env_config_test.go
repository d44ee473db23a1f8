package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/storefront/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	BaseURL string        `env:"BASE_URL" default:"http://localhost:5001"`
	Limit   int           `env:"LIMIT" default:"10"`
	Ratio   float64       `env:"RATIO" default:"0.2"`
	Debug   bool          `env:"DEBUG" default:"false"`
	Timeout time.Duration `env:"TIMEOUT" default:"0s"`
	NoTag   string
	Store   testStoreConfig `envPrefix:"STORE_"`
}

type testStoreConfig struct {
	Driver string `env:"DRIVER" default:"sqlite"`
}

func defaults() testConfig {
	return testConfig{
		BaseURL: "http://localhost:5001",
		Limit:   10,
		Ratio:   0.2,
		Store:   testStoreConfig{Driver: "sqlite"},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		envVars   map[string]string
		want      func(*testConfig)
		wantErr   bool
	}{
		{
			name:      "uses default values when env vars not set",
			namespace: "INVTEST",
			want:      func(*testConfig) {},
		},
		{
			name:      "reads namespaced variables",
			namespace: "INVTEST",
			envVars: map[string]string{
				"INVTEST_BASE_URL":     "https://shop.example",
				"INVTEST_LIMIT":        "25",
				"INVTEST_RATIO":        "0.5",
				"INVTEST_DEBUG":        "true",
				"INVTEST_TIMEOUT":      "1m30s",
				"INVTEST_STORE_DRIVER": "fs",
			},
			want: func(c *testConfig) {
				c.BaseURL = "https://shop.example"
				c.Limit = 25
				c.Ratio = 0.5
				c.Debug = true
				c.Timeout = 90 * time.Second
				c.Store.Driver = "fs"
			},
		},
		{
			name:      "prefers more specific prefix",
			namespace: "INVTEST_CLI",
			envVars: map[string]string{
				"INVTEST_BASE_URL":     "less-specific",
				"INVTEST_CLI_BASE_URL": "more-specific",
			},
			want: func(c *testConfig) {
				c.BaseURL = "more-specific"
			},
		},
		{
			name:      "falls back to less specific prefix",
			namespace: "INVTEST_CLI",
			envVars: map[string]string{
				"INVTEST_LIMIT": "3",
			},
			want: func(c *testConfig) {
				c.Limit = 3
			},
		},
		{
			name:      "fails on invalid int value",
			namespace: "INVTEST",
			envVars:   map[string]string{"INVTEST_LIMIT": "ten"},
			wantErr:   true,
		},
		{
			name:      "fails on invalid duration",
			namespace: "INVTEST",
			envVars:   map[string]string{"INVTEST_TIMEOUT": "5"},
			wantErr:   true,
		},
		{
			name:      "fails on invalid float",
			namespace: "INVTEST",
			envVars:   map[string]string{"INVTEST_RATIO": "a fifth"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig

			err := Parse(context.Background(), &cfg, tt.namespace)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			want := defaults()
			tt.want(&want)

			assert.Equal(t, want.BaseURL, cfg.BaseURL)
			assert.Equal(t, want.Limit, cfg.Limit)
			assert.InDelta(t, want.Ratio, cfg.Ratio, 1e-9)
			assert.Equal(t, want.Debug, cfg.Debug)
			assert.Equal(t, want.Timeout, cfg.Timeout)
			assert.Empty(t, cfg.NoTag)
			assert.Equal(t, want.Store, cfg.Store)
			assert.Equal(t, tt.namespace, cfg.Namespace())
		})
	}
}

//nolint:paralleltest
func TestParseDotenv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(file, []byte("INVDOT_LIMIT=42\nINVDOT_BASE_URL=from-file\n"), 0o600))

	t.Setenv("INVDOT_BASE_URL", "from-process")
	t.Cleanup(func() { os.Unsetenv("INVDOT_LIMIT") })

	var cfg testConfig

	require.NoError(t, Parse(context.Background(), &cfg, "INVDOT", file, filepath.Join(dir, "missing.env")))

	assert.Equal(t, 42, cfg.Limit)
	assert.Equal(t, "from-process", cfg.BaseURL, "process env must win over dotenv")
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}},
		{name: "non-struct pointer", cfg: new(string)},
		{name: "missing EnvConfig embedding", cfg: &struct {
			Value string `env:"VALUE"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected error %v, got %v", ErrInvalidConfig, err)
			}
		})
	}
}

func TestParseRequiredVariable(t *testing.T) {
	t.Parallel()

	cfg := &struct {
		EnvConfig

		Token string `env:"INVREQ_TOKEN_THAT_IS_NEVER_SET"`
	}{}

	err := Parse(context.Background(), cfg, "")
	require.ErrorIs(t, err, ErrVarNotSet)
}
