package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"starostabot/internal/command"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantOK   bool
		wantName string
		wantArgs string
	}{
		{name: "token with args", text: "!цитата foo", wantOK: true, wantName: "цитата", wantArgs: "foo"},
		{name: "token without args", text: "!мудрость", wantOK: true, wantName: "мудрость"},
		{name: "case insensitive cyrillic", text: "!Цитата", wantOK: true, wantName: "цитата"},
		{name: "case insensitive latin", text: "!PING pong", wantOK: true, wantName: "ping", wantArgs: "pong"},
		{name: "multi word args", text: "!кто сегодня красавчик", wantOK: true, wantName: "кто", wantArgs: "сегодня красавчик"},
		{name: "args whitespace trimmed", text: "!кто   дежурный  ", wantOK: true, wantName: "кто", wantArgs: "дежурный"},
		{name: "leading whitespace", text: "  !когда", wantOK: true, wantName: "когда"},
		{name: "tab after token", text: "!разбудить\t25.12.2025 10:00", wantOK: true, wantName: "разбудить", wantArgs: "25.12.2025 10:00"},
		{name: "space after bang", text: "! цитата", wantOK: false},
		{name: "bare bang", text: "!", wantOK: false},
		{name: "no bang", text: "цитата foo", wantOK: false},
		{name: "bang in middle", text: "ну !цитата", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, ok := command.Parse(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, cmd.Name)
				assert.Equal(t, tt.wantArgs, cmd.Args)
			}
		})
	}
}

func TestIsDuelAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"10", true},
		{"-42", true},
		{"0", true},
		{" 117 ", true},
		{"", false},
		{"-", false},
		{"10x", false},
		{"3.14", false},
		{"- 5", false},
		{"десять", false},
		{"!матдуэль", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, command.IsDuelAnswer(tt.text))
		})
	}
}
