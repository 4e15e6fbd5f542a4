package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/investa/pkg/domain"
)

var signInGreetings = [...]string{
	"Markets never sleep. Neither does your portfolio page.",
	"New listings went up this morning.",
	"The notice board has been busy while you were away.",
	"This month's magazine issue is out.",
	"Good to see you again.",
	"Your session is ready. Check the investment page for open products.",
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa")).
			Bold(true)

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)
)

// printSignedIn prints the welcome shown after login or registration.
func printSignedIn(w io.Writer, u *domain.User) {
	msg := signInGreetings[rand.IntN(len(signInGreetings))]
	fmt.Fprintf(w, "\n%s\n%s\n\n", titleStyle.Render("Signed in as "+u.DisplayName()), quoteStyle.Render(msg))
}

// printProfile prints the profile the way the my page view shows it.
func printProfile(w io.Writer, u domain.User) {
	row := func(k, v string) {
		fmt.Fprintf(w, "  %s%s\n", keyStyle.Render(k), v)
	}
	fmt.Fprintf(w, "\n  %s\n\n", titleStyle.Render(u.DisplayName()))
	row("member no.", fmt.Sprintf("#%d", u.ID))
	row("phone", domain.MaskPhone(u.PhoneNumber))
	row("type", u.Type.Label())
	row("kyc", u.KYCStatus.Label())
	if u.Active {
		row("account", "active")
	} else {
		row("account", "inactive")
	}
	if joined, ok := u.Joined(); ok {
		row("joined", joined.Format("2006-01-02"))
	}
	fmt.Fprintln(w)
}
