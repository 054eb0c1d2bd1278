package model

import "fmt"

// Kind is the semantic classification of a log entry.
type Kind int

const (
	// KindNone means no classification rule matched.
	KindNone Kind = iota
	KindDisplayImage
	KindDisplaySBGN
	KindAddProvenance
	KindSysUtterance
	KindUserUtterance
	KindReset
)

var kindLabels = map[Kind]string{
	KindDisplayImage:  "display_image",
	KindDisplaySBGN:   "display_sbgn",
	KindAddProvenance: "add_provenance",
	KindSysUtterance:  "sys_utterance",
	KindUserUtterance: "user_utterance",
	KindReset:         "reset",
}

// Kinds returns the closed set of kinds in classification priority order.
func Kinds() []Kind {
	return []Kind{
		KindDisplayImage,
		KindDisplaySBGN,
		KindAddProvenance,
		KindSysUtterance,
		KindUserUtterance,
		KindReset,
	}
}

// Valid reports whether k is a member of the closed set. KindNone is not.
func (k Kind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	if k == KindNone {
		return "none"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a label such as "sys_utterance" back to its Kind.
func ParseKind(label string) (Kind, error) {
	for k, l := range kindLabels {
		if l == label {
			return k, nil
		}
	}
	return KindNone, &InvalidKindError{Label: label}
}

// MarshalText encodes the kind as its label.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
