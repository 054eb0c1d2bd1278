package kqml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("kqml parse error")

// ParseError reports malformed performative text.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("kqml: %s at offset %d", e.Msg, e.Offset)
}

// Is lets callers use errors.Is(err, ErrParse).
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Parse reads exactly one performative from text. Leading and trailing
// whitespace is ignored; anything else after the closing paren is an error.
func Parse(text string) (*Performative, error) {
	r := &reader{src: text}
	r.skipSpace()
	if r.eof() {
		return nil, r.fail("empty message")
	}
	if r.peek() != '(' {
		return nil, r.fail("expected '('")
	}
	l, err := r.readList()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if !r.eof() {
		return nil, r.fail("unexpected text after performative")
	}
	p, ok := FromList(l)
	if !ok {
		return nil, &ParseError{Offset: 0, Msg: "performative has no verb"}
	}
	return p, nil
}

type reader struct {
	src string
	pos int
}

func (r *reader) eof() bool  { return r.pos >= len(r.src) }
func (r *reader) peek() byte { return r.src[r.pos] }

func (r *reader) fail(msg string) *ParseError {
	return &ParseError{Offset: r.pos, Msg: msg}
}

func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.peek()
		switch {
		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) readValue() (Value, error) {
	switch r.peek() {
	case '(':
		return r.readList()
	case '"':
		return r.readString()
	case ')':
		return nil, r.fail("unexpected ')'")
	default:
		return r.readToken(), nil
	}
}

func (r *reader) readList() (*List, error) {
	start := r.pos
	r.pos++ // (
	l := &List{}
	for {
		r.skipSpace()
		if r.eof() {
			return nil, &ParseError{Offset: start, Msg: "unclosed '('"}
		}
		if r.peek() == ')' {
			r.pos++
			return l, nil
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, v)
	}
}

func (r *reader) readString() (String, error) {
	start := r.pos
	r.pos++ // "
	var b strings.Builder
	for !r.eof() {
		c := r.peek()
		switch c {
		case '\\':
			r.pos++
			if r.eof() {
				return "", &ParseError{Offset: start, Msg: "unterminated string"}
			}
			b.WriteByte(r.peek())
			r.pos++
		case '"':
			r.pos++
			return String(b.String()), nil
		default:
			b.WriteByte(c)
			r.pos++
		}
	}
	return "", &ParseError{Offset: start, Msg: "unterminated string"}
}

func (r *reader) readToken() Token {
	start := r.pos
	for !r.eof() {
		c := r.peek()
		if c == '(' || c == ')' || c == '"' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			break
		}
		r.pos++
	}
	return Token(r.src[start:r.pos])
}
