// Package config reads environment-driven settings shared by the service binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvDefault returns the trimmed value of key or fallback when unset.
func EnvDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// IsTruthy accepts 1, true and yes in any case.
func IsTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

// EnvInt parses key as a non-negative integer.
func EnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// EnvDuration parses key with time.ParseDuration. Bare integers are seconds.
func EnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration", key)
	}
	return d, nil
}

// PortNumber reads and validates a TCP port.
func PortNumber(key, fallback string) (int, error) {
	n, err := strconv.Atoi(EnvDefault(key, fallback))
	if err != nil || n <= 0 || n > 65535 {
		return 0, fmt.Errorf("%s must be a TCP port", key)
	}
	return n, nil
}

// Port validates a TCP port and returns it in listener form.
func Port(key, fallback string) (string, error) {
	n, err := PortNumber(key, fallback)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}
