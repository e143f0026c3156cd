// Package command recognizes bang-prefixed chat commands ("!цитата ...") in
// raw message text and the bare-integer messages used as duel answers.
package command

import (
	"strings"
	"unicode"
)

// Command is a parsed bang command. Name is lowercased; Args is the remainder
// of the message after the first whitespace run, or empty.
type Command struct {
	Name string
	Args string
}

// Parse reports whether text is a bang command and returns it if so.
// The token must follow the '!' immediately; "! цитата" is not a command.
// Matching is case-insensitive on the token, so "!Цитата" and "!цитата"
// parse to the same name. Non-command text is not an error.
func Parse(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || !strings.HasPrefix(text, "!") {
		return Command{}, false
	}

	rest := text[1:]
	if r := []rune(rest)[0]; unicode.IsSpace(r) {
		return Command{}, false
	}

	name, args, _ := strings.Cut(rest, " ")
	if i := strings.IndexFunc(name, unicode.IsSpace); i != -1 {
		// Token may also be terminated by a tab or newline.
		args = name[i:] + " " + args
		name = name[:i]
	}

	return Command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}, true
}

// IsDuelAnswer reports whether text is a candidate duel answer: an optional
// leading minus sign followed by one or more digits, and nothing else.
func IsDuelAnswer(text string) bool {
	text = strings.TrimSpace(text)
	if after, ok := strings.CutPrefix(text, "-"); ok {
		text = after
	}
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
