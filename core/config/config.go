package config

import (
	"path/filepath"
	"reflect"
	"strings"

	"media-store/core/database"
	"media-store/core/logger"
	"media-store/core/media"
	"media-store/core/server"
	"media-store/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object store client.
	Storage storage.Config `mapstructure:"storage"`
	// Media holds configuration for the reference-counted media provider.
	Media media.Config `mapstructure:"media"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the media library database.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads configuration from environment variables and an optional
// .env file in path. Environment keys are SECTION_FIELD, e.g. STORAGE_BUCKET.
func LoadConfig(path string) (*Config, error) {
	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	bindValues(v, reflect.TypeOf(Config{}), "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// bindValues registers every mapstructure key with its 'default' tag so that
// AutomaticEnv can resolve it; Viper only looks up env vars for known keys.
func bindValues(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
