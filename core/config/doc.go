// Package config provides configuration management for the media store.
//
// It utilizes Viper for environment variables and godotenv for an optional
// .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, upload body limit
//   - Storage: driver, endpoint, credentials or IAM mode, default bucket
//   - Media: media bucket override, reference update retries
//   - Log: logging level and format
//   - Database: media library connection
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Bucket)
package config
