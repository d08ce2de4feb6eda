package smtp

import "time"

const (
	DefaultHost = "smtp.gmail.com"
	DefaultPort = 465 // implicit TLS
)

// Config contains SMTP connection parameters.
// Host and Port are not read from the environment; they default to
// DefaultHost and DefaultPort and only change in tests.
type Config struct {
	Host     string        `ignored:"true"`
	Port     int           `ignored:"true"`
	Username string        `envconfig:"MOVIEHUB_EMAIL" required:"true"` // sender address, also the login
	Password string        `envconfig:"MOVIEHUB_PASS" required:"true"`  // password or app password
	SSL      bool          `envconfig:"SMTP_SSL" default:"true"`        // TLS from the first byte (port 465)
	Insecure bool          `envconfig:"SMTP_INSECURE" default:"false"`  // skip certificate verification
	Timeout  time.Duration `envconfig:"SMTP_TIMEOUT"`                   // zero keeps the library default
}

// WithDefaults fills Host and Port when unset.
func (c Config) WithDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	return c
}
