package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules for named loggers
	HTTPServerAddr    string // listen addr for the HTTP server
	AdminToken        string // token required for mutating admin requests
	NatsURL           string // if set, lap snapshots are published to this NATS server
	WaitForServices   string // duration to wait for other services to be ready
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry
	ProfilingPort     int    // port for profiling
	StaleDuration     string // duration after which an idle race is evicted
	ParamsFile        string // path to simulation parameter file (yaml)
)
