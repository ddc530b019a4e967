// Package prompt composes the text sent to a generation backend from a
// Context. It performs no I/O.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxThreadContent is the number of characters of thread content included
// in the default prompt.
const MaxThreadContent = 500

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

var instructions = []string{
	"You are helping a user write their first post in an online community.",
	"Generate a short, authentic draft that the user might want to post.",
	"The draft should sound natural and personal, not like AI wrote it.",
	"Keep it under 2-3 sentences.",
}

const closing = "Write a draft post that this user might naturally write:"

// Build composes a prompt from c. When customTemplate is non-empty its
// {{name}} placeholders are filled from c; otherwise the default prompt is
// assembled from the fields present in c.
func Build(c Context, customTemplate string) string {
	if customTemplate != "" {
		return Render(customTemplate, c)
	}

	lines := make([]string, 0, len(instructions)+10)
	lines = append(lines, instructions...)
	lines = append(lines, "")

	if v := c.Text(KeyCommunityName); v != "" {
		lines = append(lines, "Community: "+v)
	}
	if v := c.Text(KeyCommunityTone); v != "" {
		lines = append(lines, "Tone: "+v)
	}
	if v := c.Text(KeyUserName); v != "" {
		lines = append(lines, "User's name: "+v)
	}
	if v := c.Strings(KeyUserHistory); len(v) > 0 {
		lines = append(lines, "User background: "+strings.Join(v, ", "))
	}
	if v := c.Text(KeyCurrentPage); v != "" {
		lines = append(lines, "Current page: "+v)
	}
	if v := c.Text(KeyThreadTitle); v != "" {
		lines = append(lines, "Thread title: "+v)
	}
	if v := c.Text(KeyThreadContent); v != "" {
		lines = append(lines, "Thread content: "+truncate(v, MaxThreadContent))
	}

	lines = append(lines, "", closing)
	return strings.Join(lines, "\n")
}

// Render substitutes every {{name}} in tmpl with the string form of c[name].
// Only keys present in c resolve; anything else becomes "". Text that does
// not match the placeholder syntax is copied unchanged.
func Render(tmpl string, c Context) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := c[key]
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

func stringify(v any) string {
	if items, ok := sequence(v); ok {
		return strings.Join(items, ", ")
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
