// Package config loads the datascope configuration.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// Connection is a named database connection.
type Connection struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// DataSetConfig describes one data set entry of the config file.
type DataSetConfig struct {
	ID                  string            `mapstructure:"id"`
	Name                string            `mapstructure:"name"`
	Connection          string            `mapstructure:"connection"`
	Schema              string            `mapstructure:"schema"`
	Table               string            `mapstructure:"table"`
	DefaultColumns      []string          `mapstructure:"default_columns"`
	PersonalDataColumns []string          `mapstructure:"personal_data_columns"`
	UseAttributesTable  bool              `mapstructure:"use_attributes_table"`
	Description         string            `mapstructure:"description"`
	// Columns optionally declares column types (name -> text, text[],
	// number, date, json). When absent, columns are discovered from the
	// database table.
	Columns map[string]string `mapstructure:"columns"`
}

// Config holds the application configuration.
type Config struct {
	// StorageConnection is the connection alias used to persist saved
	// queries.
	StorageConnection string                `mapstructure:"storage_connection"`
	Connections       map[string]Connection `mapstructure:"connections"`
	DataSets          []DataSetConfig       `mapstructure:"datasets"`

	// File is the config file the settings were read from, if any.
	File string `mapstructure:"-"`
}

// Load reads configuration from .datascope.yaml (working directory,
// home directory or ~/.config/datascope), the environment and .env
// files.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(".datascope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "datascope"))
	}

	v.SetEnvPrefix("DATASCOPE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env files complement the config; missing or broken ones are
	// not fatal.
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}
