package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/stockguard/pkg/errors"
)

// EnvPrefix prefixes every stockguard environment variable.
const EnvPrefix = "STOCKGUARD"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Inventory storage, empty keeps data in memory
	DataFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. Environment variables (STOCKGUARD_*)
//  3. .env and .env.local files
//  4. Config file (./.stockguard.yaml or ~/.stockguard.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stockguard")
	}

	// a missing config file is fine
	_ = viper.ReadInConfig()

	return fromViper(), nil
}

// ReadConfigFile reads an explicit config file and refreshes the values it
// can set. Unlike LoadConfig, a missing or malformed file is an error.
func (c *Config) ReadConfigFile(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return errors.NewConfigError("config", "failed to read "+path, err)
	}

	loaded := fromViper()
	c.ConfigFile = loaded.ConfigFile
	c.DataFile = loaded.DataFile
	return nil
}

// UpdateFromFlags applies parsed command flags so they take precedence over
// config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

func fromViper() *Config {
	return &Config{
		Verbose:    viper.GetBool("verbose"),
		Quiet:      viper.GetBool("quiet"),
		NoColor:    viper.GetBool("no-color"),
		ConfigFile: viper.ConfigFileUsed(),
		DataFile:   viper.GetString("data_file"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat:  getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:  getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
}

// loadEnvFiles loads .env files; .env.local is read last.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
