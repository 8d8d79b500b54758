package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/triovision/erpauth/internal/devserver"
	"github.com/triovision/erpauth/internal/stores"
)

func newDevserverCmd(a *app) *cobra.Command {
	cfg := devserver.DefaultConfig()
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory ERP auth API for local development",
		Long: `Serves the ERP auth endpoints under /api from memory. Codes are logged
unless --smtp-host is set; the SMTP password is read from ERPAUTH_SMTP_PASSWORD.

Point the client at it with:
  erpauth --base-url http://127.0.0.1:8088/api login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SMTP.Password = os.Getenv("ERPAUTH_SMTP_PASSWORD")
			opts := devserver.Options{Logger: a.logger}
			if redisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
				defer rdb.Close()
				if err := rdb.Ping(cmd.Context()).Err(); err != nil {
					return fmt.Errorf("redis %s: %w", redisAddr, err)
				}
				opts.OTPStore = stores.NewRedisOTPStore(rdb, "erpauth-dev-otp")
			}
			srv, err := devserver.New(cfg, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "serving ERP auth API on http://%s/api\n", cfg.Addr)
			return srv.Run(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	f.StringVar(&cfg.JWTSecret, "jwt-secret", "", "HS256 secret (random when empty)")
	f.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "login token lifetime")
	f.DurationVar(&cfg.OTPTTL, "otp-ttl", cfg.OTPTTL, "OTP lifetime")
	f.IntVar(&cfg.MaxOTPAttempts, "otp-attempts", cfg.MaxOTPAttempts, "wrong codes allowed before an OTP is discarded")
	f.StringVar(&redisAddr, "redis-addr", "", "keep OTPs in Redis instead of memory")
	f.StringVar(&cfg.SMTP.Host, "smtp-host", "", "SMTP relay host")
	f.IntVar(&cfg.SMTP.Port, "smtp-port", 587, "SMTP relay port")
	f.StringVar(&cfg.SMTP.User, "smtp-user", "", "SMTP user")
	f.StringVar(&cfg.SMTP.From, "smtp-from", "", "From address for OTP mail")
	return cmd
}
