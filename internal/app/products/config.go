package products

import (
	"os"
	"strconv"
	"strings"

	"github.com/Apurer/order-saga/internal/platform/config"
)

// ServiceName identifies the product service in logs, traces, metrics and Consul.
const ServiceName = "product-service"

// Config carries environment-driven settings for the product service.
type Config struct {
	HTTPPort       string
	HTTPPortNumber int
	GRPCPort       string
	PostgresDSN    string
	ConsulAddr     string
	ServiceAddress string
}

// LoadConfig reads environment variables, applies defaults, and validates them.
func LoadConfig() (Config, error) {
	var err error
	cfg := Config{
		PostgresDSN:    strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		ConsulAddr:     strings.TrimSpace(os.Getenv("CONSUL_ADDR")),
		ServiceAddress: config.EnvDefault("SERVICE_ADDRESS", "localhost"),
	}
	if cfg.HTTPPortNumber, err = config.PortNumber("HTTP_PORT", "8082"); err != nil {
		return Config{}, err
	}
	cfg.HTTPPort = strconv.Itoa(cfg.HTTPPortNumber)
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9091"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
