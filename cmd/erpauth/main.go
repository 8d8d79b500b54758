// Command erpauth is the terminal client for the Trio ERP: sign in, register,
// reset a password, inspect the stored session, summarize KPI sheets, and run
// a local development backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/triovision/erpauth"
	"github.com/triovision/erpauth/metrics/export/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the global flags and the lazily built client shared by subcommands.
type app struct {
	configPath  string
	baseURL     string
	sessionFile string
	metricsFile string
	verbose     bool

	logger *zap.Logger
	client *erpauth.Client
	redis  *redis.Client
}

// newCLI builds the command tree. The caller must call close after Execute.
func newCLI() (*app, *cobra.Command) {
	a := &app{}
	root := &cobra.Command{
		Use:           "erpauth",
		Short:         "Trio ERP terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `erpauth signs in to the Trio ERP, creates accounts with email OTP
verification, resets forgotten passwords, and summarizes production KPI sheets.

Configuration is read from --config (YAML) and ERPAUTH_* environment variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.baseURL, "base-url", "", "ERP API base URL (overrides config)")
	flags.StringVar(&a.sessionFile, "session-file", "", "token file (default: user config dir)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus text metrics here on exit")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newResetCmd(a),
		newKPICmd(a),
		newDevserverCmd(a),
	)
	return a, root
}

// loadConfig resolves the client configuration. Without a config file the CLI
// persists the token to a file so it survives between invocations.
func (a *app) loadConfig() (erpauth.Config, error) {
	cfg, err := erpauth.LoadConfig(a.configPath)
	if err != nil {
		return erpauth.Config{}, err
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = strings.TrimSpace(a.baseURL)
	}
	if a.sessionFile != "" {
		cfg.Session.Backend = erpauth.SessionFile
		cfg.Session.FilePath = a.sessionFile
	} else if a.configPath == "" && cfg.Session.Backend == erpauth.SessionMemory {
		cfg.Session.Backend = erpauth.SessionFile
		cfg.Session.FilePath = erpauth.DefaultSessionFile()
	}
	cfg.API.UserAgent = "erpauth-cli"
	return cfg, nil
}

func (a *app) clientFor(ctx context.Context) (*erpauth.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := a.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := erpauth.New().WithConfig(cfg).WithLogger(logger)
	if cfg.Session.Backend == erpauth.SessionRedis {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Session.RedisAddr, err)
		}
		b = b.WithRedis(a.redis)
	}
	if cfg.Audit.Enabled {
		b = b.WithAuditSink(erpauth.NewZapSink(logger))
	}
	client, err := b.Build()
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

func (a *app) close() error {
	var err error
	if a.client != nil {
		if a.metricsFile != "" {
			err = prometheus.NewPrometheusExporter(a.client).WriteFile(a.metricsFile)
		}
		a.client.Close()
		a.client = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, root := newCLI()
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, erpauth.UserMessage(err))
		os.Exit(1)
	}
}
