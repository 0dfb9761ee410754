// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/hlxtech/licitacost/pkg/constants"
	"github.com/hlxtech/licitacost/pkg/tax"
)

// Configuration holds all configuration for licitacost.
type Configuration struct {
	Company CompanyConfig
	Tax     TaxConfig
	Margins []float64
	Storage StorageConfig
	Server  ServerConfig
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// CompanyConfig identifies the reporting company for tax purposes.
type CompanyConfig struct {
	HomeState   string
	SimplesRate float64
}

// TaxConfig holds the rate assumptions fed into every calculation.
type TaxConfig struct {
	InterstateRate float64
	StateRates     map[string]float64
}

// StorageConfig locates the project database and the exported-report directory.
type StorageConfig struct {
	DatabasePath string
	ReportsDir   string
}

// ServerConfig holds runtime parameters for the HTTP API.
type ServerConfig struct {
	Address string
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

// LoadConfigurationFromReader loads a YAML configuration from an in-memory
// source; used by the HTTP layer and tests.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

// Default returns a Configuration populated entirely from the company
// defaults, for callers running without a config file.
func Default() *Configuration {
	conf := &Configuration{}
	conf.applyDefaults()
	return conf
}

// applyDefaults fills unset fields with the company defaults and normalizes
// state codes to uppercase.
func (conf *Configuration) applyDefaults() {
	if conf.Company.HomeState == "" {
		conf.Company.HomeState = constants.DefaultHomeState
	}
	conf.Company.HomeState = strings.ToUpper(strings.TrimSpace(conf.Company.HomeState))

	if conf.Company.SimplesRate == 0 {
		conf.Company.SimplesRate = constants.DefaultSimplesRate
	}
	if conf.Tax.InterstateRate == 0 {
		conf.Tax.InterstateRate = constants.DefaultInterstateRate
	}
	if len(conf.Tax.StateRates) == 0 {
		conf.Tax.StateRates = make(map[string]float64, len(constants.DefaultStateRates))
		for state, rate := range constants.DefaultStateRates {
			conf.Tax.StateRates[state] = rate
		}
	} else {
		normalized := make(map[string]float64, len(conf.Tax.StateRates))
		for state, rate := range conf.Tax.StateRates {
			normalized[strings.ToUpper(strings.TrimSpace(state))] = rate
		}
		conf.Tax.StateRates = normalized
	}
	if len(conf.Margins) == 0 {
		conf.Margins = append([]float64(nil), constants.DefaultProfitMargins...)
	}
	if conf.Storage.DatabasePath == "" {
		conf.Storage.DatabasePath = constants.DefaultDatabaseFile
	}
	if conf.Storage.ReportsDir == "" {
		conf.Storage.ReportsDir = constants.DefaultReportsDir
	}
	if conf.Server.Address == "" {
		conf.Server.Address = constants.DefaultServerAddress
	}
}

// Validate rejects configurations the engine cannot serve. A profit margin
// at or above 100% would divide by zero in the minimum-sale solve, so it is
// an error rather than a warning.
func (conf *Configuration) Validate() error {
	for _, margin := range conf.Margins {
		if margin >= 1.0 {
			return fmt.Errorf("profit margin target %.2f must be below 1.0", margin)
		}
		if margin < 0 {
			return fmt.Errorf("profit margin target %.2f must not be negative", margin)
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for values that are suspicious but still computable.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(conf.Company.HomeState) != 2 {
		warnings = append(warnings, fmt.Sprintf("home state %q does not look like a two-letter UF code", conf.Company.HomeState))
	}
	if conf.Company.SimplesRate < 0 || conf.Company.SimplesRate > 1 {
		warnings = append(warnings, fmt.Sprintf("Simples rate %.4f is outside [0, 1]", conf.Company.SimplesRate))
	}
	if conf.Tax.InterstateRate <= 0 || conf.Tax.InterstateRate >= 1 {
		warnings = append(warnings, fmt.Sprintf("interstate rate %.4f is outside (0, 1)", conf.Tax.InterstateRate))
	}
	for state, rate := range conf.Tax.StateRates {
		if len(state) != 2 {
			warnings = append(warnings, fmt.Sprintf("state code %q does not look like a two-letter UF code", state))
		}
		if rate <= 0 || rate >= 1 {
			warnings = append(warnings, fmt.Sprintf("rate %.4f for state %q is outside (0, 1)", rate, state))
		}
	}

	return warnings
}

// Table builds the immutable rate table handed to the calculation engine.
func (conf *Configuration) Table() tax.Table {
	return tax.NewTable(conf.Company.HomeState, conf.Tax.InterstateRate, conf.Tax.StateRates)
}
