package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naveenspark/investa/internal/browser"
)

// openURL is swapped out in tests.
var openURL = browser.Open

func newOpenCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "open [page]",
		Short:     "Open a storefront page in the browser",
		Long:      "Open a storefront page in the browser. Pages: home, products, investment, notice, magazine, mypage, login, register.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: browser.Pages(),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := ""
			if len(args) == 1 {
				page = args[0]
			}
			u, err := browser.PageURL(e.cfg.WebURL, page)
			if err != nil {
				return err
			}
			if err := openURL(u); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Visit this URL manually:\n  %s\n", u)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", u)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		// No configuration needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "investa "+version)
		},
	}
}
