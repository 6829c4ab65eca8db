package conversation

import (
	"strings"

	"github.com/dvloznov/plata/internal/ledger"
)

// Kind classifies a reply so transports can style it and tests can assert on
// it without matching text.
type Kind int

const (
	// KindOK is a normal prompt or result.
	KindOK Kind = iota
	// KindInvalid means the input was rejected and the same step is repeated.
	KindInvalid
	// KindFailure means the row store could not be reached. It is never used
	// for an empty ledger.
	KindFailure
	// KindEnd closes the conversation.
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalid:
		return "invalid"
	case KindFailure:
		return "failure"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind appear as a string in JSON replies.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Reply is what one turn sends back. Notice, Table and Prompt are rendered in
// that order; Table is meant for fixed-width display.
type Reply struct {
	Kind    Kind           `json:"kind"`
	Notice  string         `json:"notice,omitempty"`
	Table   string         `json:"table,omitempty"`
	Entries []ledger.Entry `json:"entries,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	// Options are quick-reply labels grouped in keyboard rows.
	Options [][]string `json:"options,omitempty"`
	// End is set when the conversation is over and its session must be cleared.
	End bool `json:"end"`
}

// Text renders the reply as plain text, with the table inline.
func (r Reply) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Notice, r.Table, r.Prompt} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
