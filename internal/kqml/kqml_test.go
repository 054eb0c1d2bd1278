package kqml

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNested(t *testing.T) {
	p, err := Parse(`(tell :sender BA :content (spoken :what "Hello there"))`)
	require.NoError(t, err)

	assert.Equal(t, "tell", p.Head())
	assert.True(t, p.HeadIs("TELL"))

	sender, ok := p.Gets("sender")
	require.True(t, ok)
	assert.Equal(t, "BA", sender)

	content, ok := p.Get(":content")
	require.True(t, ok)
	assert.Equal(t, "spoken", content.Head())

	what, ok := content.Gets("what")
	require.True(t, ok)
	assert.Equal(t, "Hello there", what)

	assert.Equal(t, []string{"sender", "content"}, p.Keys())
}

func TestAccessorsReportAbsence(t *testing.T) {
	p, err := Parse(`(tell :content "just text" :list (1 2) :empty ())`)
	require.NoError(t, err)

	_, ok := p.Get("missing")
	assert.False(t, ok, "missing key")

	_, ok = p.Get("content")
	assert.False(t, ok, "string value is not a performative")

	num, ok := p.Get("list")
	assert.True(t, ok, "list starting with a token is a performative")
	assert.Equal(t, "1", num.Head())

	_, ok = p.Get("empty")
	assert.False(t, ok, "empty list has no head")

	_, ok = p.Gets("list")
	assert.False(t, ok, "list has no string form")

	var nilPerf *Performative
	assert.False(t, nilPerf.HeadIs("tell"))
	_, ok = nilPerf.Gets("x")
	assert.False(t, ok)
}

func TestKeysAreCaseInsensitive(t *testing.T) {
	p, err := Parse(`(TELL :CONTENT (Spoken :WHAT hi))`)
	require.NoError(t, err)

	c, ok := p.Get("content")
	require.True(t, ok)
	assert.True(t, c.HeadIs("spoken"))
	what, _ := c.Gets("what")
	assert.Equal(t, "hi", what)
}

func TestParseStringEscapesAndNewlines(t *testing.T) {
	p, err := Parse("(tell :content (spoken :what \"say \\\"hi\\\"\nnow\"))")
	require.NoError(t, err)

	c, _ := p.Get("content")
	what, _ := c.Gets("what")
	assert.Equal(t, "say \"hi\"\nnow", what)
}

func TestParseSkipsComments(t *testing.T) {
	p, err := Parse("; leading comment\n(tell ; inline\n :content (reply))")
	require.NoError(t, err)
	c, ok := p.Get("content")
	require.True(t, ok)
	assert.Equal(t, "reply", c.Head())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: "   "},
		{name: "not a list", in: "tell :content x"},
		{name: "unclosed", in: "(tell :content (spoken"},
		{name: "stray close", in: "(tell ))"},
		{name: "unterminated string", in: `(tell :what "abc)`},
		{name: "no verb", in: `("tell" :what x)`},
		{name: "empty list", in: `()`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	in := `(tell :sender BA :content (spoken :what "a \"b\""))`
	p, err := Parse(in)
	require.NoError(t, err)
	assert.Equal(t, in, p.String())

	again, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.String(), again.String())
}
