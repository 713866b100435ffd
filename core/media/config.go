package media

// Config holds configuration for the media provider.
type Config struct {
	// Bucket overrides the storage default bucket for media. Empty falls back
	// to storage.bucket.
	Bucket string `mapstructure:"bucket" default:""`
	// MaxRetries bounds attempts of a reference update whose conditional copy
	// was rejected.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}
