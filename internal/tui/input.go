package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in free-text inputs.
const maxInputLen = 40

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// editDigits is editRune for numeric fields: only ASCII digits are accepted
// and the value is capped at limit digits.
func editDigits(text, key string, limit int) string {
	if key == "backspace" {
		return editRune(text, key)
	}
	if len(key) != 1 || key[0] < '0' || key[0] > '9' || len(text) >= limit {
		return text
	}
	return text + key
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderField renders one labelled form input. Secret values are shown as dots.
func renderField(label, value, placeholder string, focused, secret bool, animFrame int) string {
	shown := value
	if secret {
		shown = strings.Repeat("•", utf8.RuneCountInString(value))
	}
	prompt := "  "
	if focused {
		prompt = inputPromptStyle.Render("> ")
	}
	var body string
	switch {
	case shown == "" && !focused:
		body = inputPlaceholderStyle.Render(placeholder)
	case focused:
		cursor := " "
		if (animFrame/4)%2 == 0 {
			cursor = accentStyle.Render("█")
		}
		body = selectedStyle.Render(shown) + cursor
	default:
		body = normalStyle.Render(shown)
	}
	return " " + prompt + labelStyle.Render(label) + body
}
