package storage

import (
	"fmt"
	"strings"
)

// Supported values for Config.Driver.
const (
	DriverMinio  = "minio"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// Config holds configuration for the storage provider.
type Config struct {
	// Driver selects the client implementation (minio, s3, memory).
	Driver string `mapstructure:"driver" default:"minio"`
	// Endpoint is the URL of the storage service. Empty means AWS for the s3 driver.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseIAM ignores AccessKey/SecretKey and resolves credentials from the
	// environment, shared credentials file or instance role.
	UseIAM bool `mapstructure:"use_iam" default:"false"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// UsePathStyle forces path-style addressing (s3 driver only).
	UsePathStyle bool `mapstructure:"use_path_style" default:"true"`
	// Bucket is the client-level default bucket.
	Bucket string `mapstructure:"bucket" default:"media"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// CreateBucket creates the default bucket at startup when missing.
	CreateBucket bool `mapstructure:"create_bucket" default:"false"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate reports configuration errors that would prevent building a client.
func (c Config) Validate() error {
	switch c.driver() {
	case DriverMinio, DriverS3, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	if !c.UseIAM && c.driver() == DriverMinio && (c.AccessKey == "" || c.SecretKey == "") {
		return fmt.Errorf("storage access_key and secret_key are required unless use_iam is set")
	}
	return nil
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return DriverMinio
	}
	return d
}
