package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedTerminal() (*Terminal, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Terminal{Out: &out, Err: &errOut}, &out, &errOut
}

func TestJSONIsIndentedAndUnstyled(t *testing.T) {
	term, out, errOut := newBufferedTerminal()

	require.NoError(t, term.JSON(map[string]interface{}{
		"username": "alice",
		"url":      "https://parler.com/?a=1&b=2",
	}))

	assert.Equal(t, "{\n  \"url\": \"https://parler.com/?a=1&b=2\",\n  \"username\": \"alice\"\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestStatusMessagesGoToErr(t *testing.T) {
	term, out, errOut := newBufferedTerminal()

	term.Error("request failed", errors.New("boom"))
	term.Success("saved")
	term.Warning("rate limited")
	term.Info("Account", "work")
	term.Hint("use --resume")

	assert.Empty(t, out.String())
	for _, want := range []string{"request failed: boom", "saved", "rate limited", "Account:", "work", "use --resume"} {
		assert.Contains(t, errOut.String(), want)
	}
}

func TestTableAlignsColumns(t *testing.T) {
	term, _, errOut := newBufferedTerminal()

	term.Table([]string{"NAME", "JST"}, [][]string{
		{"default", "abcd...wxyz"},
		{"a", "****"},
	})

	lines := strings.Split(strings.TrimRight(errOut.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "default  abcd...wxyz", lines[1])
	assert.Equal(t, "a        ****", lines[2])
}
