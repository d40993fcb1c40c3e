package assetsync

import "time"

// Config holds reconciliation scheduling.
type Config struct {
	// Interval between scheduled listing refreshes. Zero disables the scheduler.
	Interval time.Duration `mapstructure:"interval" default:"15m"`
	// ListingCacheTTL is how long a complete remote listing is reused.
	ListingCacheTTL time.Duration `mapstructure:"listing_cache_ttl" default:"1m"`
}
