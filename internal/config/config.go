package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Geocoder GeocoderConfig
	Spots    SpotsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SpotsConfig struct {
	MinPriceCents   int
	MaxPriceCents   int
	MaxDurationMin  int
	MinLeadTime     time.Duration
	MaxLeadTime     time.Duration
	ToleranceMeters float64
	SweepInterval   time.Duration
	FeePercent      int
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	geocoderCfg := GeocoderConfig{
		BaseURL: os.Getenv("GEOCODER_URL"),
	}

	geocoderCfg.Timeout, err = durationEnv("GEOCODER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg := SpotsConfig{}

	spotsCfg.MinPriceCents, err = intEnv("MIN_PRICE_CENTS", 100)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg.MaxPriceCents, err = intEnv("MAX_PRICE_CENTS", 2000)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg.MaxDurationMin, err = intEnv("MAX_SPOT_DURATION_MIN", 60)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg.MinLeadTime, err = durationEnv("MIN_LEAD_TIME", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg.MaxLeadTime, err = durationEnv("MAX_LEAD_TIME", 4*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	spotsCfg.FeePercent, err = intEnv("FEE_PERCENT", 25)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	toleranceStr := os.Getenv("LOCATION_TOLERANCE_M")
	if toleranceStr == "" {
		spotsCfg.ToleranceMeters = 61.0
	} else {
		spotsCfg.ToleranceMeters, err = strconv.ParseFloat(toleranceStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid LOCATION_TOLERANCE_M: %w", op, err)
		}
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Geocoder: geocoderCfg,
		Spots:    spotsCfg,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
