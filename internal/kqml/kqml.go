// Package kqml reads KQML performatives as written by the CwC facilitator.
//
// A performative is a parenthesised list whose first element is a verb and
// whose remaining elements are keyword/value pairs:
//
//	(tell :sender BA :content (spoken :what "Hello"))
//
// Values are tokens, string literals, or nested lists.
package kqml

import (
	"strings"
)

// Value is one element of a KQML list.
type Value interface {
	String() string
	isValue()
}

// Token is a bare symbol such as a verb, keyword, or agent name.
type Token string

func (t Token) String() string { return string(t) }
func (Token) isValue()         {}

// String is a double-quoted string literal with escapes already resolved.
type String string

func (s String) String() string { return quote(string(s)) }
func (String) isValue()         {}

// List is a parenthesised sequence of values.
type List struct {
	Items []Value
}

func (l *List) isValue() {}

func (l *List) String() string {
	parts := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		parts = append(parts, item.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Performative is a List whose first element is a Token.
type Performative struct {
	list *List
}

// FromList wraps l as a performative. It reports false when l is empty or
// does not start with a token.
func FromList(l *List) (*Performative, bool) {
	if l == nil || len(l.Items) == 0 {
		return nil, false
	}
	if _, ok := l.Items[0].(Token); !ok {
		return nil, false
	}
	return &Performative{list: l}, true
}

// Head returns the verb of the performative.
func (p *Performative) Head() string {
	if p == nil {
		return ""
	}
	return string(p.list.Items[0].(Token))
}

// HeadIs compares the verb case-insensitively. A nil performative never matches.
func (p *Performative) HeadIs(verb string) bool {
	return p != nil && strings.EqualFold(p.Head(), verb)
}

// Lookup returns the raw value stored under key. The key may be given with
// or without its leading colon and is compared case-insensitively.
func (p *Performative) Lookup(key string) (Value, bool) {
	if p == nil {
		return nil, false
	}
	want := ":" + strings.TrimPrefix(key, ":")
	items := p.list.Items
	for i := 1; i+1 < len(items); i++ {
		tok, ok := items[i].(Token)
		if !ok || !strings.EqualFold(string(tok), want) {
			continue
		}
		return items[i+1], true
	}
	return nil, false
}

// Get returns the nested performative stored under key. It reports false
// when the key is missing or its value is not a performative.
func (p *Performative) Get(key string) (*Performative, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return nil, false
	}
	l, ok := v.(*List)
	if !ok {
		return nil, false
	}
	return FromList(l)
}

// Gets returns the string form of the value stored under key: the literal
// text for strings and tokens. Lists report false.
func (p *Performative) Gets(key string) (string, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case String:
		return string(val), true
	case Token:
		return string(val), true
	default:
		return "", false
	}
}

// Keys lists the keywords in order of appearance, without colons.
func (p *Performative) Keys() []string {
	if p == nil {
		return nil
	}
	var keys []string
	items := p.list.Items
	for i := 1; i < len(items); i++ {
		tok, ok := items[i].(Token)
		if ok && strings.HasPrefix(string(tok), ":") && i+1 < len(items) {
			keys = append(keys, strings.TrimPrefix(string(tok), ":"))
			i++
		}
	}
	return keys
}

func (p *Performative) String() string {
	if p == nil {
		return "()"
	}
	return p.list.String()
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
