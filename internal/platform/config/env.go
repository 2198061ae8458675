// Package config loads process configuration from environment variables
// through caarlos0/env struct tags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from the process environment.
func ParseEnv(target any) error {
	return parse(target, env.Options{})
}

// ParseEnvMap fills target from environment alone, ignoring the process
// environment. A nil map behaves like an empty environment.
func ParseEnvMap(target any, environment map[string]string) error {
	if environment == nil {
		environment = map[string]string{}
	}
	return parse(target, env.Options{Environment: environment})
}

func parse(target any, opts env.Options) error {
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
