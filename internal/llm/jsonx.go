package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("no json object in completion")

// ExtractJSON returns the first balanced JSON object in s, after stripping a
// surrounding markdown fence if there is one.
func ExtractJSON(s string) (string, error) {
	s = stripFence(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSON
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}

// DecodeJSON extracts the first object from a completion and unmarshals it into out.
func DecodeJSON(completion string, out any) error {
	obj, err := ExtractJSON(completion)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("decode completion json: %w", err)
	}
	return nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
