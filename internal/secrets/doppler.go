// Package secrets resolves sensitive settings through the Doppler CLI.
package secrets

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// lookupTimeout bounds a single `doppler secrets get` invocation
const lookupTimeout = 5 * time.Second

// DopplerClient provides access to secrets stored in Doppler
type DopplerClient struct {
	Project string
	Config  string

	initialized bool
	mu          sync.Mutex
	cache       map[string]string
	run         func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDopplerClient creates a new Doppler client
func NewDopplerClient(project, config string) *DopplerClient {
	return &DopplerClient{
		Project: project,
		Config:  config,
		cache:   make(map[string]string),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Initialize checks if Doppler CLI is installed
func (d *DopplerClient) Initialize() error {
	if _, err := exec.LookPath("doppler"); err != nil {
		return fmt.Errorf("doppler CLI not found: %w", err)
	}
	d.initialized = true
	return nil
}

// GetSecret retrieves a secret. Values exported by `doppler run` win over
// a CLI lookup; CLI results are cached for the life of the process.
func (d *DopplerClient) GetSecret(key string) (string, error) {
	if !d.initialized {
		if err := d.Initialize(); err != nil {
			return "", err
		}
	}

	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if value, ok := d.cache[key]; ok {
		return value, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	output, err := d.run(ctx, "doppler", "secrets", "get", key,
		"--project", d.Project,
		"--config", d.Config,
		"--plain")
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}

	value := strings.TrimSpace(string(output))
	d.cache[key] = value
	return value, nil
}

// GetSecretWithFallback gets a secret from Doppler with a fallback value
func (d *DopplerClient) GetSecretWithFallback(key, fallback string) string {
	value, err := d.GetSecret(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
