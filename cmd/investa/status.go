package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/client"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and backend status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			sess, c, done := e.startSession(ctx)
			defer done()

			printLogo(out)
			fmt.Fprintln(out)
			printInfo(out, "api", e.cfg.APIURL+e.cfg.APIPrefix)

			snap := sess.Snapshot()
			switch snap.Status {
			case session.Authenticated:
				printCheck(out, "session", "signed in as "+snap.User.DisplayName(), true)
				if exp, ok := tokenExpiry(snap.Token); ok {
					printInfo(out, "expires", describeExpiry(exp, time.Now()))
				}
			default:
				printCheck(out, "session", "signed out", false)
			}

			healthy := c.Health(ctx)
			printCheck(out, "health", healthText(healthy), healthy)
			if resp, err := c.Test(ctx); err != nil {
				printCheck(out, "auth", client.Message(err), false)
			} else {
				printCheck(out, "auth", resp.Message, resp.Success)
			}
			if snap.Status != session.Authenticated {
				printNote(out, "sign in with: investa login --phone <number>")
				return nil
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func healthText(ok bool) string {
	if ok {
		return "online"
	}
	return "unreachable"
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The second result is false for opaque tokens or tokens without exp.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func describeExpiry(exp, now time.Time) string {
	at := exp.Local().Format("2006-01-02 15:04")
	if !exp.After(now) {
		return at + " (expired)"
	}
	return fmt.Sprintf("%s (in %s)", at, exp.Sub(now).Round(time.Minute))
}
