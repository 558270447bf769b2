// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration keys recognized by FromEnv and FromFile. With the OVPNAS
// env prefix these become OVPNAS_ENDPOINT_URL, OVPNAS_USERNAME,
// OVPNAS_PASSWORD and OVPNAS_ALLOW_UNTRUSTED.
const (
	configKeyEndpoint       = "endpoint_url"
	configKeyUsername       = "username"
	configKeyPassword       = "password"
	configKeyAllowUntrusted = "allow_untrusted"
	configKeyTimeout        = "request_timeout"

	configEnvPrefix = "OVPNAS"
)

// FromEnv creates a Client from environment variables. OVPNAS_ENDPOINT_URL,
// OVPNAS_USERNAME and OVPNAS_PASSWORD are required;
// OVPNAS_ALLOW_UNTRUSTED and OVPNAS_REQUEST_TIMEOUT are optional.
func FromEnv() (*Client, error) {
	v := viper.New()
	v.SetEnvPrefix(configEnvPrefix)
	v.AutomaticEnv()
	bindConfigKeys(v)
	return clientFromViper(v)
}

// FromFile creates a Client from a configuration file. The format is
// inferred from the extension (yaml, json, toml); keys match the
// configuration key names above. Environment variables with the OVPNAS
// prefix override file values.
func FromFile(path string) (*Client, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(configEnvPrefix)
	v.AutomaticEnv()
	bindConfigKeys(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return clientFromViper(v)
}

func bindConfigKeys(v *viper.Viper) {
	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		configKeyEndpoint,
		configKeyUsername,
		configKeyPassword,
		configKeyAllowUntrusted,
		configKeyTimeout,
	} {
		_ = v.BindEnv(key)
	}
}

func clientFromViper(v *viper.Viper) (*Client, error) {
	config := &ClientConfig{
		EndpointURL:    v.GetString(configKeyEndpoint),
		Username:       v.GetString(configKeyUsername),
		Password:       v.GetString(configKeyPassword),
		AllowUntrusted: v.GetBool(configKeyAllowUntrusted),
		RequestTimeout: v.GetDuration(configKeyTimeout),
	}
	return NewClient(config)
}
