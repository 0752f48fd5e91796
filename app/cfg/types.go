package cfg

type Cfg struct {
	// Storage configuration
	DBPath       string
	CacheBackend string
	RedisAddr    string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	IngestionURL      string
	WorkerCount       int
	SchedulerInterval int
	FetchTimeout      int
	MinRelevanceScore float64
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
