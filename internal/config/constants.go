package config

// Constants defining default values for application configuration
const (
	DefaultFeedsCSVPath = "./feeds.csv"
	DefaultDBPath       = "./newsloom.db"
	DefaultSettingsPath = "./ingestor.yaml"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultWorkerCount = 1  // Feeds processed sequentially unless raised
	DefaultInterval    = 0  // Minutes between runs, 0 for one-shot
	DefaultLogLevel    = "info"

	// Pipeline tuning defaults.
	DefaultRecencyWindowHours = 48
	DefaultMaxEntriesPerFeed  = 5
	DefaultMinExtractWords    = 20
	DefaultMinNormalizedWords = 3

	DefaultInferenceURL = "http://localhost:5000"

	// Browser-like agent used for article page fetches; some publishers
	// refuse requests with obvious bot agents.
	PageUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	FeedUserAgent = "newsloom-ingestor/1.0"
)
