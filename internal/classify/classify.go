// Package classify assigns semantic kinds to parsed facilitator messages.
package classify

import (
	"strings"

	"cwclog/internal/kqml"
	"cwclog/internal/model"
)

// Agents names the agents the rules are anchored on.
type Agents struct {
	Dialogue    string // main conversational counterpart
	TextInput   string // agent that relays typed user input
	PathDiagram string // agent whose "simulation" images are path diagrams
}

// DefaultAgents returns the agent names used by the CwC Bob system.
func DefaultAgents() Agents {
	return Agents{
		Dialogue:    "BA",
		TextInput:   "TEXTTAGGER",
		PathDiagram: "QCA",
	}
}

type rule struct {
	kind  model.Kind
	match func(rec model.RawRecord, msg *kqml.Performative, agents Agents) bool
}

// rules are evaluated in order and the first match wins. The display and
// provenance shapes do not look at the partner, so they go first.
var rules = []rule{
	{model.KindDisplayImage, tellWithContent("display-image")},
	{model.KindDisplaySBGN, tellWithContent("display-sbgn")},
	{model.KindAddProvenance, tellWithContent("add-provenance")},
	{model.KindSysUtterance, isSysUtterance},
	{model.KindUserUtterance, isUserUtterance},
	{model.KindReset, isReset},
}

// Classify returns the first kind whose rule matches, or KindNone.
func Classify(rec model.RawRecord, msg *kqml.Performative, agents Agents) model.Kind {
	if msg == nil {
		return model.KindNone
	}
	for _, r := range rules {
		if r.match(rec, msg, agents) {
			return r.kind
		}
	}
	return model.KindNone
}

// Match evaluates the rule of a single kind, ignoring priority.
func Match(kind model.Kind, rec model.RawRecord, msg *kqml.Performative, agents Agents) (bool, error) {
	for _, r := range rules {
		if r.kind == kind {
			return msg != nil && r.match(rec, msg, agents), nil
		}
	}
	return false, &model.InvalidKindError{Label: kind.String()}
}

// contentHeadIs reports whether msg has the given verb and its :content
// performative has the given verb.
func contentHeadIs(msg *kqml.Performative, head, contentHead string) bool {
	if !msg.HeadIs(head) {
		return false
	}
	content, ok := msg.Get("content")
	return ok && content.HeadIs(contentHead)
}

// tellWithContent matches (tell :content (<tag> ...)). Tags are compared
// with '_' and '-' treated alike, since both spellings occur.
func tellWithContent(tag string) func(model.RawRecord, *kqml.Performative, Agents) bool {
	want := normalizeTag(tag)
	return func(_ model.RawRecord, msg *kqml.Performative, _ Agents) bool {
		if !msg.HeadIs("tell") {
			return false
		}
		content, ok := msg.Get("content")
		return ok && strings.EqualFold(normalizeTag(content.Head()), want)
	}
}

func fromDialogueAgent(rec model.RawRecord, agents Agents) bool {
	return rec.Partner != "" && strings.EqualFold(rec.Partner, agents.Dialogue)
}

func isSysUtterance(rec model.RawRecord, msg *kqml.Performative, agents Agents) bool {
	return fromDialogueAgent(rec, agents) && contentHeadIs(msg, "tell", "spoken")
}

func isUserUtterance(rec model.RawRecord, msg *kqml.Performative, agents Agents) bool {
	if !fromDialogueAgent(rec, agents) || !contentHeadIs(msg, "tell", "utterance") {
		return false
	}
	for _, sender := range Senders(msg) {
		if strings.EqualFold(sender, agents.TextInput) {
			return true
		}
	}
	return false
}

func isReset(rec model.RawRecord, msg *kqml.Performative, agents Agents) bool {
	if !fromDialogueAgent(rec, agents) || !contentHeadIs(msg, "broadcast", "tell") {
		return false
	}
	content, _ := msg.Get("content")
	inner, ok := content.Get("content")
	return ok && inner.HeadIs("start-conversation")
}

// Senders returns the non-empty :sender values of msg and of its :content,
// outer first. Either position may name the agent that relayed the message.
func Senders(msg *kqml.Performative) []string {
	var senders []string
	if s, ok := msg.Gets("sender"); ok && s != "" {
		senders = append(senders, s)
	}
	if content, ok := msg.Get("content"); ok {
		if s, ok := content.Gets("sender"); ok && s != "" {
			senders = append(senders, s)
		}
	}
	return senders
}

func normalizeTag(tag string) string {
	return strings.ReplaceAll(tag, "_", "-")
}
