package main

import (
	"fmt"
	"io"
)

// ANSI color constants for plain command output (no lipgloss needed).
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiBlue  = "\033[38;2;96;165;250m"  // #60a5fa
	ansiNavy  = "\033[38;2;59;110;190m"  // #3b6ebe
	ansiGreen = "\033[38;2;74;222;128m"  // #4ade80
	ansiRed   = "\033[38;2;224;96;96m"   // #e06060
	ansiGold  = "\033[38;2;212;168;68m"  // #d4a844
	ansiSlate = "\033[38;2;136;144;160m" // #8890a0
)

// printLogo prints the spaced INVESTA wordmark in alternating blues.
func printLogo(w io.Writer) {
	letters := "INVESTA"
	colors := [2]string{ansiBlue, ansiNavy}
	fmt.Fprint(w, "\n  ")
	for i, ch := range letters {
		fmt.Fprintf(w, "%s%s%c%s", colors[i%2], ansiBold, ch, ansiReset)
		if i < len(letters)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printCheck prints one "label  value" line of the status report.
func printCheck(w io.Writer, label, value string, ok bool) {
	color := ansiRed
	if ok {
		color = ansiGreen
	}
	fmt.Fprintf(w, "  %s%-10s%s %s●%s %s\n", ansiSlate, label, ansiReset, color, ansiReset, value)
}

// printInfo is printCheck without a verdict.
func printInfo(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s%-10s%s   %s\n", ansiSlate, label, ansiReset, value)
}

// printNote prints a highlighted hint below the report.
func printNote(w io.Writer, msg string) {
	fmt.Fprintf(w, "\n  %s│%s %s\n\n", ansiGold, ansiReset, msg)
}
