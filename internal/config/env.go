package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("environment variable with key not found")
	ErrConversionFailed = errors.New("failed to convert environment variable with key to value")
)

func errNotFound(key string) error {
	return fmt.Errorf("key: %s: %w", key, ErrNotFound)
}

func errConversionFailed(key string, typeName string, err error) error {
	return fmt.Errorf("key: %s type: %s: %w: %w", key, typeName, ErrConversionFailed, err)
}

func GetString(key string) (string, error) {
	if val, found := os.LookupEnv(key); found {
		return val, nil
	}
	return "", errNotFound(key)
}

func GetStringOrDefault(key string, defaultVal string) string {
	if val, found := os.LookupEnv(key); found && val != "" {
		return val
	}
	return defaultVal
}

func GetIntOrDefault(key string, defaultVal int) (int, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errConversionFailed(key, "int", err)
	}
	return n, nil
}

// GetDurationOrDefault accepts Go durations ("90s", "2m").
func GetDurationOrDefault(key string, defaultVal time.Duration) (time.Duration, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errConversionFailed(key, "duration", err)
	}
	if d <= 0 {
		return 0, errConversionFailed(key, "duration", fmt.Errorf("must be positive, got %s", d))
	}
	return d, nil
}

// GetListOrDefault splits a comma separated value, dropping empty items.
func GetListOrDefault(key string, defaultVal []string) []string {
	val, found := os.LookupEnv(key)
	if !found || strings.TrimSpace(val) == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
