package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

// JWT 有效期固定 24h，不提供配置项
type JWT struct {
	Secret string
	Issuer string
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Cache struct {
	StatsTTLSec int
}

type CORS struct {
	AllowOrigins []string
}

type DB struct {
	Driver             string // postgres | mysql | memory
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	Migrate            string // auto | sql | none
	LogLevel           string
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
	Cache Cache
	CORS  CORS
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "store-rating")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "store-rating")
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.migrate", "auto")
	v.SetDefault("db.logLevel", "warn")
	v.SetDefault("cache.statsTTLSec", 30)
}

// Parse 读取 yaml + APP_ 前缀环境变量
func Parse(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	switch c.DB.Migrate {
	case "auto", "sql", "none":
	default:
		return fmt.Errorf("unsupported db.migrate %q", c.DB.Migrate)
	}
	return nil
}

func Load(path string) *Config {
	c, err := Parse(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}
