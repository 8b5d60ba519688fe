package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FRONTEND_URL", "https://magaza.example/")
	t.Setenv("PLATFORM_FEE_PERCENT", "")

	cfg := Load()

	assert.Equal(t, "https://magaza.example", cfg.FrontendURL)
	assert.Equal(t, 15.0, cfg.PlatformFeePercent)
	assert.Equal(t, "try", cfg.Currency)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, []string{"https://magaza.example"}, cfg.CORSOrigins())
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PLATFORM_FEE_PERCENT", "140")
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("JWT_ACCESS_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 15.0, cfg.PlatformFeePercent)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
}

func TestPlatformFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		percent float64
		want    int64
	}{
		{name: "fifteen percent", amount: 10000, percent: 15, want: 1500},
		{name: "rounds half up", amount: 999, percent: 15, want: 150},
		{name: "zero amount", amount: 0, percent: 15, want: 0},
		{name: "zero percent", amount: 5000, percent: 0, want: 0},
		{name: "full share", amount: 5000, percent: 100, want: 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlatformFee(tt.amount, tt.percent))
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "db", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", cfg.PostgresDSN())
}
