// Package config loads toolset configuration and bootstraps the initial
// header map merged beneath any explicit per-call headers.
package config

import (
	"encoding/base64"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// Config describes one toolset: where its API lives and how to
// authenticate against it.
type Config struct {
	Name    string     `json:"name" yaml:"name"`
	BaseURL string     `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Auth    AuthConfig `json:"auth" yaml:"auth"`
	// ExtraHeaders are merged into every request after the auth header.
	ExtraHeaders map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// AuthConfig describes the credential bootstrap.
type AuthConfig struct {
	// Type selects the Authorization scheme.
	Type     string `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=basic bearer"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
}

var validate = validator.New()

// Load reads the config from file, expanding environment variables.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}
	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration. Missing credentials are a
// configuration error raised here, before first use, never retried.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	switch c.Auth.Type {
	case "basic":
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return errors.New("basic auth requires username and password")
		}
	case "bearer":
		if c.Auth.Token == "" {
			return errors.New("bearer auth requires a token")
		}
	}
	return nil
}

// Headers produces the bootstrap header map: the Authorization header
// derived from the credentials, plus any extra headers.
func (c *Config) Headers() map[string]string {
	headers := map[string]string{}
	switch c.Auth.Type {
	case "basic":
		creds := base64.StdEncoding.EncodeToString([]byte(c.Auth.Username + ":" + c.Auth.Password))
		headers["Authorization"] = "Basic " + creds
	case "bearer":
		headers["Authorization"] = "Bearer " + c.Auth.Token
	}
	for name, v := range c.ExtraHeaders {
		headers[name] = v
	}
	return headers
}
