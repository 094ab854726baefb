package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ReadConfig loads ./data/config.* into the global viper instance. Environment variables
// prefixed with NAVGUIDE_ override file values.
func ReadConfig() error {
	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")
	viper.SetEnvPrefix("NAVGUIDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

// LoadEnv loads a .env file into the process environment when one exists.
func LoadEnv(filenames ...string) bool {
	if err := godotenv.Load(filenames...); err != nil {
		return false
	}
	return true
}
