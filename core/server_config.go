/*
 * Copyright (C) 2025 OpenVCI community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const defaultConfigFile = "issuer.yaml"
const configFileFlag = "configfile"

const defaultPrefix = "ISSUER_"
const defaultDelimiter = "."

// ServerConfig has global server settings.
type ServerConfig struct {
	Verbosity    string     `koanf:"verbosity"`
	LoggerFormat string     `koanf:"loggerformat"`
	Strictmode   bool       `koanf:"strictmode"`
	HTTP         HTTPConfig `koanf:"http"`

	configMap *koanf.Koanf
}

// HTTPConfig contains the HTTP interface configuration.
type HTTPConfig struct {
	// Address holds the interface address the HTTP server binds to, in the format of <host>:<port>.
	Address string `koanf:"address"`
}

// NewServerConfig returns a ServerConfig with default values.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Verbosity:    "info",
		LoggerFormat: "text",
		Strictmode:   false,
		HTTP: HTTPConfig{
			Address: ":1323",
		},
	}
}

// FlagSet returns the global server flags.
func FlagSet() *pflag.FlagSet {
	defs := NewServerConfig()
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.String(configFileFlag, defaultConfigFile, "Server config file")
	flagSet.String("verbosity", defs.Verbosity, "Log level (trace, debug, info, warn, error)")
	flagSet.String("loggerformat", defs.LoggerFormat, "Log format (text, json)")
	flagSet.Bool("strictmode", defs.Strictmode, "When set, insecure settings are forbidden.")
	flagSet.String("http.address", defs.HTTP.Address, "Address and port the HTTP server binds to")
	return flagSet
}

// Load fills the config from the config file, environment and command line flags,
// in increasing order of precedence.
func (cfg *ServerConfig) Load(flags *pflag.FlagSet) error {
	k := koanf.New(defaultDelimiter)

	configFile := defaultConfigFile
	if f := flags.Lookup(configFileFlag); f != nil {
		configFile = f.Value.String()
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return fmt.Errorf("unable to load config file %s: %w", configFile, err)
		}
	}
	if err := k.Load(env.Provider(defaultPrefix, defaultDelimiter, func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, defaultPrefix)), "_", defaultDelimiter)
	}), nil); err != nil {
		return err
	}
	if err := k.Load(posflag.Provider(flags, defaultDelimiter, k), nil); err != nil {
		return err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("unable to unmarshal server config: %w", err)
	}
	cfg.configMap = k
	return cfg.configureLogging()
}

// InjectIntoConfig extracts a module config subtree from the loaded configuration.
// Modules call this with their koanf prefix and their own config struct, pre-filled
// with defaults.
func (cfg *ServerConfig) InjectIntoConfig(prefix string, target interface{}) error {
	if cfg.configMap == nil {
		return nil
	}
	if err := cfg.configMap.Unmarshal(prefix, target); err != nil {
		return fmt.Errorf("unable to unmarshal config for %s: %w", prefix, err)
	}
	return nil
}

func (cfg *ServerConfig) configureLogging() error {
	level, err := logrus.ParseLevel(cfg.Verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	switch cfg.LoggerFormat {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid formatter: '%s'", cfg.LoggerFormat)
	}
	return nil
}
