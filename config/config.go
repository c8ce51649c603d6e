package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	RequestTimeoutSec int    `mapstructure:"REQUEST_TIMEOUT_SEC"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// CredentialsFile is where the bearer token and identity are persisted
	// between runs. Empty means the default location under the user config dir.
	CredentialsFile string `mapstructure:"CREDENTIALS_FILE"`

	// DevServerAddr is the listen address for the `devserver` subcommand.
	DevServerAddr string `mapstructure:"DEV_SERVER_ADDR"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("API_BASE_URL", "http://localhost:4000")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REQUEST_TIMEOUT_SEC", 15)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	viper.SetDefault("CREDENTIALS_FILE", "")
	viper.SetDefault("DEV_SERVER_ADDR", ":4000")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if AppConfig.CredentialsFile == "" {
		AppConfig.CredentialsFile = defaultCredentialsFile()
	}
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".clinicbook", "credentials.json")
	}
	return filepath.Join(dir, "clinicbook", "credentials.json")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
