package temporalx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

// NewClient connects to the frontend in cfg, retrying until DialMaxWait has
// passed. Without an address it returns nil, nil and the service runs with
// process sync disabled.
func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (temporalsdkclient.Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Enabled() {
		log.Warn("TEMPORAL_ADDRESS not set; process sync disabled")
		return nil, nil
	}
	opts, err := cfg.clientOptions(log, true)
	if err != nil {
		return nil, err
	}

	giveUp := time.Now().Add(cfg.DialMaxWait)
	for attempt := 1; ; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		c, err := temporalsdkclient.DialContext(dialCtx, opts)
		cancel()
		if err == nil {
			log.Info("Connected to Temporal", "address", cfg.Address, "namespace", cfg.Namespace, "attempts", attempt)
			return c, nil
		}
		if cfg.DialMaxWait <= 0 || time.Now().After(giveUp) {
			return nil, fmt.Errorf("dial temporal %s/%s: %w", cfg.Address, cfg.Namespace, err)
		}
		log.Warn("Temporal not reachable; retrying", "address", cfg.Address, "attempt", attempt, "error", err)
		if perr := Pause(ctx, cfg, attempt); perr != nil {
			return nil, errors.Join(perr, err)
		}
	}
}

// clientOptions builds dial options. withNamespace is false for the
// namespace client, which must not send a namespace that may not exist yet.
func (c Config) clientOptions(log *logger.Logger, withNamespace bool) (temporalsdkclient.Options, error) {
	opts := temporalsdkclient.Options{HostPort: c.Address, Logger: log}
	if withNamespace {
		opts.Namespace = c.Namespace
	}
	if !c.hasTLS() {
		return opts, nil
	}
	tlsCfg, err := c.tlsConfig()
	if err != nil {
		return opts, err
	}
	opts.ConnectionOptions.TLS = tlsCfg
	return opts, nil
}

// tlsConfig loads the mTLS client pair and, when given, a private CA.
func (c Config) tlsConfig() (*tls.Config, error) {
	if c.ClientCertPath == "" || c.ClientKeyPath == "" {
		return nil, errors.New("temporal mTLS needs both TEMPORAL_CLIENT_CERT_PATH and TEMPORAL_CLIENT_KEY_PATH")
	}
	pair, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("temporal mTLS key pair: %w", err)
	}
	out := &tls.Config{Certificates: []tls.Certificate{pair}, MinVersion: tls.VersionTLS12}
	if c.ClientCAPath == "" {
		return out, nil
	}
	caPEM, err := os.ReadFile(c.ClientCAPath)
	if err != nil {
		return nil, fmt.Errorf("temporal mTLS CA: %w", err)
	}
	out.RootCAs = x509.NewCertPool()
	if !out.RootCAs.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("temporal mTLS CA %s holds no certificates", c.ClientCAPath)
	}
	return out, nil
}
