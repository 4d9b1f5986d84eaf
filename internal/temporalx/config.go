package temporalx

import (
	"os"
	"strings"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	NamespaceRetention    time.Duration

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	Backoff        time.Duration
	BackoffMax     time.Duration
	RPCMaxAttempts int
}

func LoadConfig() Config {
	retentionDays := envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7)
	if retentionDays < 1 || retentionDays > 365 {
		retentionDays = 7
	}
	return Config{
		Address:   strings.TrimSpace(os.Getenv("TEMPORAL_ADDRESS")),
		Namespace: stringsOr(os.Getenv("TEMPORAL_NAMESPACE"), "casedata"),
		TaskQueue: stringsOr(os.Getenv("TEMPORAL_TASK_QUEUE"), "casedata-errands"),

		ClientCertPath: strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CERT_PATH")),
		ClientKeyPath:  strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_KEY_PATH")),
		ClientCAPath:   strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CA_PATH")),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		NamespaceRetention:    time.Duration(retentionDays) * 24 * time.Hour,

		DialTimeout:    envutil.Millis("TEMPORAL_DIAL_TIMEOUT_MS", 5*time.Second),
		DialMaxWait:    envutil.Millis("TEMPORAL_DIAL_MAX_WAIT_MS", 60*time.Second),
		Backoff:        envutil.Millis("TEMPORAL_BACKOFF_MS", 250*time.Millisecond),
		BackoffMax:     envutil.Millis("TEMPORAL_BACKOFF_MAX_MS", 5*time.Second),
		RPCMaxAttempts: envutil.Int("TEMPORAL_RPC_MAX_ATTEMPTS", 3),
	}
}

// Enabled reports whether a Temporal frontend is configured. Without one the
// service runs with process sync disabled.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Address) != ""
}

func (c Config) hasTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

func stringsOr(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
