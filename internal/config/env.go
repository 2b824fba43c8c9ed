package config

import (
	"fmt"
	"os"
	"strconv"
)

// Get returns the value of the environment variable or the fallback when unset.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetInt returns the integer value of the environment variable or the fallback
// when unset or unparseable.
func GetInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetRequired returns the value of the environment variable or an error when
// it is unset. Used for credentials that must never be defaulted.
func GetRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}
