package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naveenspark/investa/internal/config"
	"github.com/naveenspark/investa/internal/logging"
	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/internal/tokenstore"
	"github.com/naveenspark/investa/internal/tui"
	"github.com/naveenspark/investa/pkg/client"
)

// env is what every command shares: resolved configuration, the logger and
// the global flags.
type env struct {
	apiURL    string
	ephemeral bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "investa",
		Short: "Investa storefront account client",
		Long: `Sign in to the Investa storefront, manage your session and open the
web pages from the terminal. Run without a command for the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&e.apiURL, "api-url", "", "backend base URL (overrides INVESTA_API_URL)")
	root.PersistentFlags().BoolVar(&e.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.AddCommand(
		newLoginCmd(e),
		newRegisterCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newStatusCmd(e),
		newOpenCmd(e),
		newDevserverCmd(e),
		newVersionCmd(),
	)
	return root
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if e.apiURL != "" {
		if err := cfg.SetAPIURL(e.apiURL); err != nil {
			return err
		}
	}
	e.cfg = cfg
	e.logger = logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}

func (e *env) client() *client.Client {
	return client.New(e.cfg.APIURL, e.cfg.APIPrefix, client.WithTimeout(e.cfg.Timeout()))
}

// openStore opens the persistent token store. If the database cannot be
// opened the session still works, but only for this process.
func (e *env) openStore() (tokenstore.Store, func()) {
	if e.ephemeral {
		return tokenstore.NewMemory(), func() {}
	}
	b, err := tokenstore.OpenBolt(e.cfg.DataDir)
	if err != nil {
		e.logger.Warn("token store unavailable, session will not persist", "dir", e.cfg.DataDir, "error", err)
		return tokenstore.NewMemory(), func() {}
	}
	return b, func() {
		if err := b.Close(); err != nil {
			e.logger.Warn("close token store", "error", err)
		}
	}
}

// openSession builds the session without validating it. The returned func
// closes the session and the store.
func (e *env) openSession() (*session.Session, tokenstore.Store, *client.Client, func()) {
	store, closeStore := e.openStore()
	c := e.client()
	sess := session.New(store, c, session.WithLogger(e.logger))
	return sess, store, c, func() {
		sess.Close()
		closeStore()
	}
}

// startSession opens the session and runs the startup validation.
func (e *env) startSession(ctx context.Context) (*session.Session, *client.Client, func()) {
	sess, _, c, done := e.openSession()
	sess.Start(ctx)
	return sess, c, done
}

func (e *env) runTUI(ctx context.Context) error {
	logger, logFile, err := logging.NewFile(e.cfg.LogLevel, e.cfg.DataDir)
	if err == nil {
		defer logFile.Close() //nolint:errcheck
		e.logger = logger
	}

	sess, _, c, done := e.openSession()
	defer done()

	app := tui.NewApp(sess, c, e.cfg.WebURL)
	defer app.Unsubscribe()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
