// Package config loads zatcasign's runtime configuration from environment
// variables and an optional config file.
package config

// SPDX-License-Identifier: MIT
// Grounded on jhoicas-Inventario-api's pkg/config/config.go: same
// viper.New + AutomaticEnv + getString/getInt helper shape, narrowed to the
// fields a signing CLI needs instead of a full web-service config.

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is zatcasign's full runtime configuration.
type Config struct {
	Log    LogConfig
	Entity EntityConfig
	HTTP   HTTPConfig
}

// LogConfig controls obslog.New.
type LogConfig struct {
	Env   string
	Level string
}

// EntityConfig names the seller identity and credential zatcasign signs
// with.
type EntityConfig struct {
	VATNumber    string
	SellerName   string
	DemoMode     bool
	CertPath     string
	CertPassword string
}

// HTTPConfig bounds how long a ZATCA call may take before zatcasign gives
// up.
type HTTPConfig struct {
	TimeoutSeconds int
}

// Load reads configuration from ZATCASIGN_-prefixed environment variables,
// falling back to an optional ./zatcasign.env file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("zatcasign")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Log: LogConfig{
			Env:   getString(v, "ZATCASIGN_ENV", "production"),
			Level: getString(v, "ZATCASIGN_LOG_LEVEL", "info"),
		},
		Entity: EntityConfig{
			VATNumber:    getString(v, "ZATCASIGN_VAT_NUMBER", ""),
			SellerName:   getString(v, "ZATCASIGN_SELLER_NAME", ""),
			DemoMode:     getBool(v, "ZATCASIGN_DEMO_MODE", true),
			CertPath:     getString(v, "ZATCASIGN_CERT_PATH", ""),
			CertPassword: getString(v, "ZATCASIGN_CERT_PASSWORD", ""),
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: getInt(v, "ZATCASIGN_HTTP_TIMEOUT_SECONDS", 20),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
