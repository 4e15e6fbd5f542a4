package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naveenspark/investa/internal/session"
	"github.com/naveenspark/investa/pkg/client"
	"github.com/naveenspark/investa/pkg/domain"
)

func newLoginCmd(e *env) *cobra.Command {
	var phone, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with phone number and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			phone = domain.NormalizePhone(phone)
			if err := domain.ValidatePhone(phone); err != nil {
				return errors.New(client.Message(err))
			}
			if password == "" {
				p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				var err error
				if password, err = p.secret("Password"); err != nil {
					return err
				}
			}
			if err := domain.ValidatePassword(password); err != nil {
				return errors.New(client.Message(err))
			}

			sess, c, done := e.startSession(cmd.Context())
			defer done()
			user, err := session.SignIn(cmd.Context(), sess, c, phone, password)
			if err != nil {
				return fmt.Errorf("login failed: %s", client.Message(err))
			}
			printSignedIn(cmd.OutOrStdout(), user)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number, digits only (010-1234-5678 is accepted)")
	cmd.Flags().StringVar(&password, "password", "", "6-digit password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	var phone, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (SMS verification)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			phone = domain.NormalizePhone(phone)
			if err := domain.ValidatePhone(phone); err != nil {
				return errors.New(client.Message(err))
			}

			sess, c, done := e.startSession(ctx)
			defer done()
			p := newPrompter(cmd.InOrStdin(), out)

			sent, err := c.SendSMS(ctx, phone)
			if err != nil {
				return fmt.Errorf("send code: %s", client.Message(err))
			}
			if sent.Message != "" {
				fmt.Fprintln(out, sent.Message)
			}

			code, err := p.line("Verification code")
			if err != nil {
				return err
			}
			if _, err := c.VerifySMS(ctx, phone, code); err != nil {
				return fmt.Errorf("verify code: %s", client.Message(err))
			}

			password, err := p.secret("Password (6 digits)")
			if err != nil {
				return err
			}
			if err := domain.ValidatePassword(password); err != nil {
				return errors.New(client.Message(err))
			}
			confirm, err := p.secret("Confirm password")
			if err != nil {
				return err
			}
			if confirm != password {
				return errors.New("passwords do not match")
			}

			user, err := session.SignUp(ctx, sess, c, phone, password, name)
			if err != nil {
				return fmt.Errorf("register failed: %s", client.Message(err))
			}
			printSignedIn(out, user)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number to verify")
	cmd.Flags().StringVar(&name, "name", "", "display name (optional)")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear your session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			sess, store, _, done := e.openSession()
			defer done()

			if token, _ := store.Read(); token == "" {
				fmt.Fprintln(out, "Already signed out.")
				return nil
			}
			// Logout does not need the startup validation: it reads the stored
			// token directly while the session is still initializing.
			if err := sess.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(out, "Signed out. The server did not confirm: %s\n", client.Message(err))
				return nil
			}
			fmt.Fprintln(out, "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, _, done := e.startSession(cmd.Context())
			defer done()

			snap, err := session.RequireAuth(sess)
			if err != nil {
				return errors.New("not signed in (run: investa login --phone ...)")
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.User)
			}
			printProfile(out, *snap.User)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw profile JSON")
	return cmd
}
