package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/naveenspark/investa/internal/devserver"
)

func newDevserverCmd(e *env) *cobra.Command {
	var (
		addr  string
		ttl   time.Duration
		seeds []string
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local fake backend for development",
		Long: `Run an in-memory backend that serves the auth API on --addr.
Every SMS verification code is ` + devserver.TestCode + `. Accounts can be seeded with
--user 01012345678:123456[:name].`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := devserver.New(
				devserver.WithPrefix(e.cfg.APIPrefix),
				devserver.WithTokenTTL(ttl),
				devserver.WithLogger(e.logger),
			)
			for _, seed := range seeds {
				phone, password, name, err := parseSeed(seed)
				if err != nil {
					return err
				}
				if _, err := srv.AddUser(phone, password, name); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- httpSrv.ListenAndServe()
			}()
			e.logger.Info("devserver.listening", "addr", addr, "prefix", e.cfg.APIPrefix, "users", len(seeds))
			fmt.Fprintf(cmd.OutOrStdout(), "devserver listening on http://%s (code %s)\n", addr, devserver.TestCode)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("devserver: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().DurationVar(&ttl, "token-ttl", time.Hour, "lifetime of issued tokens")
	cmd.Flags().StringArrayVar(&seeds, "user", nil, "seed an account as phone:password[:name] (repeatable)")
	return cmd
}

func parseSeed(s string) (phone, password, name string, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("invalid --user %q, want phone:password[:name]", s)
	}
	if len(parts) == 3 {
		name = parts[2]
	}
	return parts[0], parts[1], name, nil
}
