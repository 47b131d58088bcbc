package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr     string `default:":8080"`
	LogLevel string `split_words:"true" default:"info"`

	SpotifyID          string
	SpotifySecret      string
	SpotifyRedirectURL string `split_words:"true" default:"http://localhost:8080/auth/spotify/callback"`
	SpotifyBaseURL     string `split_words:"true"`

	// DatabaseDriver is either "sqlite3" or "postgres".
	DatabaseDriver string `split_words:"true" default:"sqlite3"`
	DatabaseURL    string `split_words:"true" default:"harmonyhub.db"`

	// TokenStore is either "sql" or "firestore".
	TokenStore       string `split_words:"true" default:"sql"`
	TokenID          string `split_words:"true" default:"default"`
	FirestoreProject string `split_words:"true"`

	CacheEnabled bool          `split_words:"true" default:"true"`
	CacheTTL     time.Duration `split_words:"true" default:"1h"`

	RequestsPerSecond float64       `split_words:"true" default:"10"`
	BatchSize         int           `split_words:"true" default:"50"`
	BatchTimeout      time.Duration `split_words:"true" default:"2m"`
	MaxAttempts       uint          `split_words:"true" default:"5"`
	RetryBaseDelay    time.Duration `split_words:"true" default:"1s"`
	RetryMaxDelay     time.Duration `split_words:"true" default:"1m"`
	RateLimitDelay    time.Duration `split_words:"true" default:"5s"`
	GenreConcurrency  int           `split_words:"true" default:"4"`

	TopTracksLimit  int    `split_words:"true" default:"50"`
	TopArtistsLimit int    `split_words:"true" default:"20"`
	TimeRange       string `split_words:"true" default:"medium_term"`
	TopAlbums       int    `split_words:"true" default:"10"`
	TopGenres       int    `split_words:"true" default:"10"`

	MusicBrainzFallback bool `split_words:"true" default:"false"`
}

// ProvideConfig reads HARMONYHUB_* environment variables.
func ProvideConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("harmonyhub", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var Options = ProvideConfig
