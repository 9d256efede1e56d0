package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration   `mapstructure:"idleTimeout"`
	RateLimit    RateLimitConfig `mapstructure:"rateLimit"`
	Auth         AuthConfig      `mapstructure:"auth"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwtSecret"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

// DatabaseConfig describes one primary and zero or more read replicas. Replicas share
// the primary's credentials, port and database name.
type DatabaseConfig struct {
	Host            string     `mapstructure:"host"`
	Port            int        `mapstructure:"port"`
	User            string     `mapstructure:"user"`
	Password        string     `mapstructure:"password"`
	Name            string     `mapstructure:"name"`
	SSLMode         string     `mapstructure:"sslMode"`
	Replicas        []string   `mapstructure:"replicas"`
	ReplicaHost     string     `mapstructure:"replicaHost"`
	ReadingReplicas int        `mapstructure:"readingReplicas"`
	AutoMigrate     bool       `mapstructure:"autoMigrate"`
	Pool            PoolConfig `mapstructure:"pool"`
}

type PoolConfig struct {
	MaxConns          int32         `mapstructure:"maxConns"`
	MinConns          int32         `mapstructure:"minConns"`
	MaxConnIdleTime   time.Duration `mapstructure:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `mapstructure:"healthCheckPeriod"`
	AcquireTimeout    time.Duration `mapstructure:"acquireTimeout"`
	PingTimeout       time.Duration `mapstructure:"pingTimeout"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type MetricsConfig struct {
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

type HealthConfig struct {
	SweepSchedule string        `mapstructure:"sweepSchedule"`
	SweepTimeout  time.Duration `mapstructure:"sweepTimeout"`
	CacheTTL      time.Duration `mapstructure:"cacheTTL"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

type RabbitMQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	ExchangeName string `mapstructure:"exchangeName"`
	// WarmupQueue receives engagement and customer events to re-prime the
	// health cache. Empty disables the consumer.
	WarmupQueue string `mapstructure:"warmupQueue"`
}

func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/",
	}
	return u.String()
}

// PrimaryURL returns the connection string of the write endpoint.
func (c DatabaseConfig) PrimaryURL() string {
	return c.urlFor(c.Host)
}

// ReplicaURLs returns one connection string per read endpoint. An explicit replica
// list wins; otherwise hosts are derived as "<replicaHost>-<i>" for i in 1..readingReplicas.
func (c DatabaseConfig) ReplicaURLs() []string {
	hosts := c.ReplicaHosts()
	urls := make([]string, 0, len(hosts))
	for _, h := range hosts {
		urls = append(urls, c.urlFor(h))
	}
	return urls
}

func (c DatabaseConfig) ReplicaHosts() []string {
	hosts := make([]string, 0, len(c.Replicas))
	for _, h := range c.Replicas {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) > 0 || c.ReplicaHost == "" {
		return hosts
	}
	for i := 1; i <= c.ReadingReplicas; i++ {
		hosts = append(hosts, fmt.Sprintf("%s-%d", c.ReplicaHost, i))
	}
	return hosts
}

func (c DatabaseConfig) urlFor(host string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.rps", 10)
	v.SetDefault("server.rateLimit.burst", 20)
	v.SetDefault("server.auth.enabled", false)
	v.SetDefault("server.auth.jwtSecret", "")
	v.SetDefault("server.auth.tokenTTL", 24*time.Hour)

	v.SetDefault("database.host", "primary-db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "customer_health")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.replicas", []string{})
	v.SetDefault("database.replicaHost", "read-replica")
	v.SetDefault("database.readingReplicas", 2)
	v.SetDefault("database.autoMigrate", false)
	v.SetDefault("database.pool.maxConns", 10)
	v.SetDefault("database.pool.minConns", 0)
	v.SetDefault("database.pool.maxConnIdleTime", 5*time.Minute)
	v.SetDefault("database.pool.healthCheckPeriod", 1*time.Minute)
	v.SetDefault("database.pool.acquireTimeout", 5*time.Second)
	v.SetDefault("database.pool.pingTimeout", 2*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("health.sweepSchedule", "*/15 * * * *")
	v.SetDefault("health.sweepTimeout", 10*time.Minute)
	v.SetDefault("health.cacheTTL", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dialTimeout", 5*time.Second)

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.username", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.exchangeName", "customer-health")
	v.SetDefault("rabbitmq.warmupQueue", "customer-health.cache-warmup")
}
