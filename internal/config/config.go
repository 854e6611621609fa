// Package config builds the harness configuration from the environment and
// an optional .env file, and inspects the stack definition file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

// Default values for the harness configuration.
const (
	DefaultHost         = "tailrelay-dev"
	DefaultDomain       = "my-tailnet.ts.net"
	DefaultStackFile    = "./compose-test.yml"
	DefaultService      = "tailrelay-test"
	DefaultImage        = "sudocarlos/tailrelay:dev"
	DefaultBuildContext = "."
	DefaultSettleDelay  = 3 * time.Second
	DefaultProbeTimeout = 10 * time.Second
	DefaultLogTailLines = 10
	DefaultLogLevel     = "info"
)

// Environment variable names.
const (
	EnvHost              = "STACK_HOST"
	EnvDomain            = "NETWORK_DOMAIN"
	EnvStackFile         = "STACK_DEFINITION_FILE"
	EnvService           = "STACK_SERVICE"
	EnvContainer         = "STACK_CONTAINER"
	EnvImage             = "STACK_IMAGE"
	EnvBuildContext      = "BUILD_CONTEXT"
	EnvSettleDelay       = "SETTLE_DELAY"
	EnvProbeTimeout      = "PROBE_TIMEOUT"
	EnvLogTailLines      = "LOG_TAIL_LINES"
	EnvTeardownOnFailure = "TEARDOWN_ON_FAILURE"
	EnvReportFormat      = "REPORT_FORMAT"
	EnvLogLevel          = "LOG_LEVEL"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// Load builds a Config from lookup, applying defaults for unset or empty
// variables. The container name falls back to the stack file's
// container_name for the service, then to the service name.
func Load(lookup LookupFunc) (*domain.Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &domain.Config{
		Host:         get(EnvHost, DefaultHost),
		Domain:       get(EnvDomain, DefaultDomain),
		StackFile:    get(EnvStackFile, DefaultStackFile),
		Service:      get(EnvService, DefaultService),
		Image:        get(EnvImage, DefaultImage),
		BuildContext: get(EnvBuildContext, DefaultBuildContext),
		Format:       domain.ReportFormat(strings.ToLower(get(EnvReportFormat, string(domain.FormatTable)))),
		LogLevel:     get(EnvLogLevel, DefaultLogLevel),
	}

	var err error
	if cfg.SettleDelay, err = parseDuration(EnvSettleDelay, get(EnvSettleDelay, ""), DefaultSettleDelay); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = parseDuration(EnvProbeTimeout, get(EnvProbeTimeout, ""), DefaultProbeTimeout); err != nil {
		return nil, err
	}
	if raw := get(EnvLogTailLines, ""); raw != "" {
		if cfg.LogTailLines, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogTailLines, err)
		}
	} else {
		cfg.LogTailLines = DefaultLogTailLines
	}
	if raw := get(EnvTeardownOnFailure, ""); raw != "" {
		if cfg.TeardownOnFailure, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTeardownOnFailure, err)
		}
	}

	cfg.Container = get(EnvContainer, "")
	if cfg.Container == "" {
		cfg.Container = cfg.Service
		if stack, err := ReadStackFile(cfg.StackFile); err == nil {
			if name := stack.ContainerName(cfg.Service); name != "" {
				cfg.Container = name
			}
		}
	}

	return cfg, nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
