package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"sjsage522/projectwatcher/pkg/errors"
)

// Secrets holds values kept out of the environment, read from a TOML file
type Secrets struct {
	DatabaseURI string `toml:"DATABASE_URI"`
}

// LoadSecrets reads the secrets file at path. A missing DATABASE_URI is an error.
func LoadSecrets(path string) (*Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("reading secrets %s", path), err)
	}

	var s Secrets
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("parsing secrets %s", path), err)
	}
	if s.DatabaseURI == "" {
		return nil, errors.NewConfiguration(fmt.Sprintf("%s: DATABASE_URI is empty", path), nil)
	}
	return &s, nil
}
