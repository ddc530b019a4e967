package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Well-known context keys. Any other key is carried through untouched and
// is reachable from custom templates.
const (
	KeyUserID        = "userId"
	KeyUserName      = "userName"
	KeyUserHistory   = "userHistory"
	KeyCurrentPage   = "currentPage"
	KeyCurrentThread = "currentThread"
	KeyThreadTitle   = "threadTitle"
	KeyThreadContent = "threadContent"
	KeyCommunityName = "communityName"
	KeyCommunityTone = "communityTone"
)

// Tone is the register a community expects from its posts.
type Tone string

const (
	ToneSupportive   Tone = "supportive"
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneTechnical    Tone = "technical"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneSupportive, ToneProfessional, ToneCasual, ToneTechnical:
		return true
	}
	return false
}

// Context holds the facts about the user, page and community that feed a
// prompt. The builder only reads it.
type Context map[string]any

// ParseContext decodes a JSON object into a Context. A JSON null yields an
// empty Context. Numbers are kept as json.Number so large ids render
// exactly.
func ParseContext(raw []byte) (Context, error) {
	c := Context{}
	if len(raw) == 0 {
		return c, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("prompt: decode context: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("prompt: decode context: trailing data after object")
	}
	if c == nil {
		c = Context{}
	}
	return c, nil
}

// Validate rejects well-known fields carrying a value of the wrong shape.
func (c Context) Validate() error {
	if v, ok := c[KeyCommunityTone]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr {
			return fmt.Errorf("prompt: %s must be a string", KeyCommunityTone)
		}
		if s != "" && !Tone(s).Valid() {
			return fmt.Errorf("prompt: unknown %s %q", KeyCommunityTone, s)
		}
	}
	if v, ok := c[KeyUserHistory]; ok && v != nil {
		if _, isSeq := sequence(v); !isSeq {
			return fmt.Errorf("prompt: %s must be a list", KeyUserHistory)
		}
	}
	return nil
}

// String returns the value stored under key when it is a string.
func (c Context) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Text returns the value stored under key in string form, or "" when the
// value is empty, false, zero or null.
func (c Context) Text(key string) string {
	v := c[key]
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 || math.IsNaN(t) {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
	}
	return stringify(v)
}

// Strings returns the value stored under key as a slice of strings when it
// is a sequence.
func (c Context) Strings(key string) []string {
	items, _ := sequence(c[key])
	return items
}

func sequence(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, stringify(item))
		}
		return out, true
	}
	return nil, false
}
