package service

const (
	defaultPort          = 8080
	defaultLogLevel      = "info"
	defaultLogFormat     = "plain"
	defaultTxPollSeconds = 1
	defaultTxWaitSeconds = 120
)

var (
	emptyConfig   = Config{}
	defaultConfig = Config{
		Port:          defaultPort,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
		TxPollSeconds: defaultTxPollSeconds,
		TxWaitSeconds: defaultTxWaitSeconds,
	}
)

// Config represents the service configuration
// struct.
type Config struct {
	Port          int    `yaml:"port"`
	LogLevel      string `yaml:"loglevel"`
	LogFormat     string `yaml:"logformat"`
	URLs          string `yaml:"urls"`         // must be supplied by user
	PrivateKey    string `yaml:"privatekey"`   // hex signing key, mutating endpoints are disabled when empty
	TokenAddress  string `yaml:"tokenaddress"` // optional address of an already-deployed GoldToken
	TxPollSeconds int    `yaml:"txpollseconds"`
	TxWaitSeconds int    `yaml:"txwaitseconds"`
}

// Sanitize will support a lazy user by ensuring that empty config file
// fields are replaced with default values.
func (c *Config) Sanitize() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.TxPollSeconds == 0 {
		c.TxPollSeconds = defaultTxPollSeconds
	}
	if c.TxWaitSeconds == 0 {
		c.TxWaitSeconds = defaultTxWaitSeconds
	}
}
