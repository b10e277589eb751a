package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int    `yaml:"port" envconfig:"PORT" default:"8080"`
	Mode           string `yaml:"mode" envconfig:"GIN_MODE" default:"release"`
	ReadTimeout    int    `yaml:"read_timeout" mapstructure:"read_timeout" envconfig:"READ_TIMEOUT" default:"10"`
	WriteTimeout   int    `yaml:"write_timeout" mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"10"`
	RequestTimeout int    `yaml:"request_timeout" mapstructure:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"5"`
}

// MySQLConfig holds the connection and pool parameters of the storefront schema.
type MySQLConfig struct {
	Host            string `yaml:"host" envconfig:"MYSQL_HOST" default:"127.0.0.1"`
	Port            int    `yaml:"port" envconfig:"MYSQL_PORT" default:"3306"`
	User            string `yaml:"user" envconfig:"MYSQL_USER" default:"storefront"`
	Password        string `yaml:"password" envconfig:"MYSQL_PASSWORD" default:"storefront"`
	DBName          string `yaml:"dbname" envconfig:"MYSQL_DATABASE" default:"storefront"`
	Params          string `yaml:"params" envconfig:"MYSQL_PARAMS" default:"charset=utf8mb4&parseTime=True&loc=Local"`
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns" envconfig:"MYSQL_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns" envconfig:"MYSQL_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime" envconfig:"MYSQL_CONN_MAX_LIFETIME" default:"300"`
}

// DSN renders the go-sql-driver data source name.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.User, c.Password, c.Host, c.Port, c.DBName, c.Params)
}

// RedisConfig enables the shared catalog cache when Host is set.
type RedisConfig struct {
	Host     string `yaml:"host" envconfig:"REDIS_HOST"`
	Port     int    `yaml:"port" envconfig:"REDIS_PORT" default:"6379"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	TTL      int    `yaml:"ttl" envconfig:"REDIS_TTL" default:"300"`
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

func (c RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

type Database struct {
	Mysql MySQLConfig `yaml:"mysql"`
	Redis RedisConfig `yaml:"redis"`
}

type Logger struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format     string `yaml:"format" envconfig:"LOG_FORMAT" default:"text"`
	Output     string `yaml:"output" envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `yaml:"file_path" mapstructure:"file_path" envconfig:"LOG_FILE" default:"logs/storefront.log"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size" envconfig:"LOG_MAX_SIZE" default:"100"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups" envconfig:"LOG_MAX_BACKUPS" default:"3"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age" envconfig:"LOG_MAX_AGE" default:"28"`
	Env        string `yaml:"env" envconfig:"ENV" default:"dev"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret" envconfig:"JWT_SECRET" default:"storefront-dev-secret"`
	ExpireHours int    `yaml:"expire_hours" mapstructure:"expire_hours" envconfig:"JWT_EXPIRE_HOURS" default:"24"`
}

// RateLimitRule is a token bucket per client IP.
type RateLimitRule struct {
	RPS   int `yaml:"rps" mapstructure:"rps" envconfig:"RATE_RPS" default:"50"`
	Burst int `yaml:"burst" mapstructure:"burst" envconfig:"RATE_BURST" default:"100"`
}

type CheckoutConfig struct {
	PaymentType  string `yaml:"payment_type" mapstructure:"payment_type" envconfig:"PAYMENT_TYPE" default:"credit_card"`
	DeliveryDays int    `yaml:"delivery_days" mapstructure:"delivery_days" envconfig:"DELIVERY_DAYS" default:"7"`
}

// MQConfig enables the RabbitMQ event forwarder when Host is set.
type MQConfig struct {
	Host     string `yaml:"host" envconfig:"MQ_HOST"`
	Port     int    `yaml:"port" envconfig:"MQ_PORT" default:"5672"`
	User     string `yaml:"user" envconfig:"MQ_USER" default:"guest"`
	Password string `yaml:"password" envconfig:"MQ_PASSWORD" default:"guest"`
	Exchange string `yaml:"exchange" envconfig:"MQ_EXCHANGE" default:"storefront.events"`
}

func (c MQConfig) Enabled() bool { return c.Host != "" }

func (c MQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Database  Database       `yaml:"database"`
	Logger    Logger         `yaml:"log" mapstructure:"log"`
	JWT       JWTConfig      `yaml:"jwt"`
	RateLimit RateLimitRule  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Checkout  CheckoutConfig `yaml:"checkout"`
	MQ        MQConfig       `yaml:"mq"`
}

// InitConfig reads a YAML file. Zero values fall back to the same defaults
// FromEnv uses.
func InitConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configPath, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// FromEnv builds a Config from MYSQL_* and STOREFRONT_* environment variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg.Database.Mysql); err != nil {
		return nil, fmt.Errorf("mysql env: %w", err)
	}
	sections := []any{
		&cfg.Server,
		&cfg.Database.Redis,
		&cfg.Logger,
		&cfg.JWT,
		&cfg.RateLimit,
		&cfg.Checkout,
		&cfg.MQ,
	}
	for _, section := range sections {
		if err := envconfig.Process("storefront", section); err != nil {
			return nil, fmt.Errorf("storefront env: %w", err)
		}
	}
	return &cfg, nil
}

// Load picks the YAML file when a path is given and the environment otherwise.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return FromEnv()
	}
	return InitConfig(configPath)
}

func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5
	}

	my := &cfg.Database.Mysql
	if my.Host == "" {
		my.Host = "127.0.0.1"
	}
	if my.Port == 0 {
		my.Port = 3306
	}
	if my.Params == "" {
		my.Params = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	if my.MaxOpenConns == 0 {
		my.MaxOpenConns = 25
	}
	if my.MaxIdleConns == 0 {
		my.MaxIdleConns = 5
	}
	if my.ConnMaxLifetime == 0 {
		my.ConnMaxLifetime = 300
	}

	if cfg.Database.Redis.Port == 0 {
		cfg.Database.Redis.Port = 6379
	}
	if cfg.Database.Redis.TTL == 0 {
		cfg.Database.Redis.TTL = 300
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Output == "" {
		cfg.Logger.Output = "stdout"
	}
	if cfg.Logger.Env == "" {
		cfg.Logger.Env = "dev"
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "storefront-dev-secret"
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24
	}

	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 50
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 100
	}

	if cfg.Checkout.PaymentType == "" {
		cfg.Checkout.PaymentType = "credit_card"
	}
	if cfg.Checkout.DeliveryDays == 0 {
		cfg.Checkout.DeliveryDays = 7
	}

	if cfg.MQ.Port == 0 {
		cfg.MQ.Port = 5672
	}
	if cfg.MQ.Exchange == "" {
		cfg.MQ.Exchange = "storefront.events"
	}
}
