package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env   string      `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP  HTTPConfig  `yaml:"http"`
	Mongo MongoConfig `yaml:"mongo"`
	Auth  AuthConfig  `yaml:"auth"`
	S3    S3Config    `yaml:"s3"`
	WS    WSConfig    `yaml:"ws"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `yaml:"database" env:"MONGO_DATABASE" env-default:"chatline"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env-default:"10s"`
	PingTimeout    time.Duration `yaml:"ping_timeout" env-default:"5s"`
	MaxPoolSize    uint64        `yaml:"max_pool_size" env-default:"100"`
}

type AuthConfig struct {
	AccessTokenSecret string `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
}

type S3Config struct {
	Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"chatline-attachments"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:""`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY" env-default:""`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY" env-default:""`
}

type WSConfig struct {
	WriteWait      time.Duration `yaml:"write_wait" env-default:"10s"`
	PongWait       time.Duration `yaml:"pong_wait" env-default:"60s"`
	MaxMessageSize int64         `yaml:"max_message_size" env-default:"65536"`
	SendBuffer     int           `yaml:"send_buffer" env-default:"256"`
}

// MustLoad reads the config file named by -config or CONFIG_PATH and panics
// on any error; a missing file falls back to environment variables only.
func MustLoad() *Config {
	path := fetchConfigPath()

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			panic("config file does not exist: " + path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			panic("cannot read config: " + err.Error())
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}
	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
