package config

import "time"

// WebhookConfig configures the optional login-attempt notification webhook.
type WebhookConfig struct {
	Url         string `usage:"If set, a POST request describing each kicked login attempt is sent to this HTTP address"`
	RequireUser bool   `default:"false" usage:"Only notify when a player name was present in the login attempt"`
}

// MetricsBackendConfig carries backend-specific settings for whichever
// metrics backend ProcessConfig.MetricsBackend selects.
type MetricsBackendConfig struct {
	Influxdb struct {
		Interval time.Duration     `default:"1m"`
		Tags     map[string]string `usage:"extra tags included with all reported metrics"`
		Addr     string
		Username string
		Password string
		Database string
	}
}

// ProcessConfig is the set of process-level knobs filled from CLI flags by
// itzg/go-flagsfiller. These configure the running process, as distinct
// from StatusConfig, which configures the status card content itself.
type ProcessConfig struct {
	ConfigFile          string `default:"slp_config.json" usage:"Path to the status card configuration [file]"`
	MaxThreads          int    `default:"10" usage:"Size of the bounded worker pool servicing connections"`
	WatchConfig         bool   `default:"false" usage:"Watch the config file and hot-reload the status card on change"`
	ApiBinding          string `usage:"The [host:port] bound for serving /metrics, /vars, /healthz, /status"`
	MetricsBackend      string `default:"discard" usage:"Backend for metrics exposure: discard,expvar,prometheus,influxdb"`
	MetricsBackendConfig MetricsBackendConfig
	Debug               bool   `default:"false" usage:"Enable debug logging"`
	CpuProfile          string `usage:"Enables CPU profiling and writes to given [path]"`
	ConnectionRateLimit int    `default:"0" usage:"Max accepted connections per second; 0 disables the limiter"`
	ReceiveProxyProtocol bool   `default:"false" usage:"Accept a PROXY protocol header from an upstream load balancer in front of this service"`
	TrustedProxies      []string `usage:"CIDR blocks trusted to supply a PROXY protocol header"`
	NgrokToken          string `usage:"If set, expose the listener through an ngrok TCP tunnel instead of a direct bind"`
	ClientsToAllow      []string `usage:"Client IP addresses or CIDRs to allow; takes precedence over deny"`
	ClientsToDeny       []string `usage:"Client IP addresses or CIDRs to deny; ignored if any are configured to allow"`
	Webhook             WebhookConfig
}
