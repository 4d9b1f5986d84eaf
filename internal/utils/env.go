package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

// lookupEnv resolves key through parse, falling back to def when the
// variable is unset, blank or unparsable. Each outcome is logged at debug so
// a misconfigured deployment can be traced from its startup log.
func lookupEnv[T any](key string, def T, log *logger.Logger, parse func(string) (T, error)) T {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("env_var", key)

	raw, ok := os.LookupEnv(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		log.Debug("Environment variable not set, using default", "default", def)
		return def
	}
	v, err := parse(raw)
	if err != nil {
		log.Debug("Environment variable unparsable, using default", "value", raw, "default", def, "error", err)
		return def
	}
	log.Debug("Environment variable set", "value", v)
	return v
}

func GetEnv(key, def string, log *logger.Logger) string {
	return lookupEnv(key, def, log, func(s string) (string, error) { return s, nil })
}

func GetEnvAsInt(key string, def int, log *logger.Logger) int {
	return lookupEnv(key, def, log, strconv.Atoi)
}

// GetEnvAsBool also accepts yes/no and on/off.
func GetEnvAsBool(key string, def bool, log *logger.Logger) bool {
	return lookupEnv(key, def, log, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
		return strconv.ParseBool(s)
	})
}

// GetEnvAsMillis reads a non-negative integer number of milliseconds.
func GetEnvAsMillis(key string, def time.Duration, log *logger.Logger) time.Duration {
	return lookupEnv(key, def, log, func(s string) (time.Duration, error) {
		ms, err := strconv.ParseUint(s, 10, 32)
		return time.Duration(ms) * time.Millisecond, err
	})
}

// GetEnvAsList splits a comma separated value, dropping empty items.
func GetEnvAsList(key string, log *logger.Logger) []string {
	return lookupEnv(key, []string(nil), log, func(s string) ([]string, error) {
		var out []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	})
}
