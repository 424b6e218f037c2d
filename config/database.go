package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBName          = "analytics"
	defaultDBUser          = "analytics"
	defaultSSLMode         = "disable"
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// DBConfig contains PostgreSQL database configuration.
// Unset fields are filled by Sanitize so that an unset source database can fall back to the warehouse.
type DBConfig struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT"`
	User            string        `env:"USER"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME"`
	SSLMode         string        `env:"SSL_MODE"` // Use 'disable' for local dev, 'require' for production
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`

	// URL is a full connection string that takes precedence over the discrete fields.
	URL string

	fallback bool
}

func (c *DBConfig) applyDefaults() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		c.Host = defaultDBHost
	}
	if c.Port <= 0 {
		c.Port = defaultDBPort
	}
	if c.User == "" {
		c.User = defaultDBUser
	}
	if c.Name == "" {
		c.Name = defaultDBName
	}
	if c.SSLMode == "" {
		c.SSLMode = defaultSSLMode
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = defaultConnMaxLifetime
	}
}

// IsFallback reports whether this config was copied from the warehouse settings.
func (c DBConfig) IsFallback() bool {
	return c.fallback
}

// sessionTimeZone pins the Postgres session TimeZone. Run windows are cut at UTC midnight.
const sessionTimeZone = "UTC"

// DSN returns the connection string. The URL is built with url.URL so that
// special characters in credentials are escaped. Every DSN carries timezone=UTC
// unless a URL override already names a timezone.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return withSessionTimeZone(c.URL)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	q.Set("timezone", sessionTimeZone)
	u.RawQuery = q.Encode()
	return u.String()
}

// withSessionTimeZone adds timezone=UTC to a URL-form DSN. Keyword/value DSNs and
// unparseable values are returned unchanged.
func withSessionTimeZone(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return dsn
	}
	q := u.Query()
	if q.Has("timezone") {
		return dsn
	}
	q.Set("timezone", sessionTimeZone)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedactedDSN returns the DSN with the password replaced.
func (c DBConfig) RedactedDSN() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	// Enabled turns on the distributed run lock.
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Sanitize trims addresses and drops empty node entries.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.SentinelNodes = compact(c.SentinelNodes)
	c.ClusterNodes = compact(c.ClusterNodes)
}

func (c *RedisConfig) hasAddress() bool {
	switch {
	case c.UseCluster:
		return len(c.ClusterNodes) > 0 || c.URI != ""
	case c.UseSentinel:
		return len(c.SentinelNodes) > 0
	default:
		return c.URI != ""
	}
}

// Mode returns direct, sentinel or cluster.
func (c *RedisConfig) Mode() string {
	switch {
	case c.UseCluster:
		return "cluster"
	case c.UseSentinel:
		return "sentinel"
	default:
		return "direct"
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
