// Package genjson extracts JSON payloads from generative-model replies.
//
// Models that are instructed to answer "JSON only" still frequently wrap the
// payload in Markdown code fences, prepend a short preamble, or append an
// explanation. This package centralises the cleanup so that every caller
// parses model output the same way: strip fences, isolate the outermost JSON
// value, and decode with missing fields left at their zero values.
package genjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Clean strips Markdown code fences and surrounding prose from a model reply,
// returning the best candidate JSON text. It never fails; when no JSON
// delimiters are found the trimmed input is returned as-is so that callers
// can still attempt a parse (or fall back to raw text).
func Clean(reply string) string {
	s := strings.TrimSpace(reply)

	// A fenced block with a language tag: keep only the outermost JSON value.
	if strings.Contains(s, "```json") {
		if inner := outermost(s, '{', '}'); inner != "" {
			return inner
		}
		if inner := outermost(s, '[', ']'); inner != "" {
			return inner
		}
	}

	if strings.HasPrefix(s, "```") {
		s = s[3:]
		// The language tag, if present, ends at the first newline.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Unmarshal cleans reply and decodes the result into v. Unknown fields are
// ignored and missing fields keep their zero values, matching the lenient
// contract callers need for semi-structured model output.
func Unmarshal(reply string, v any) error {
	cleaned := Clean(reply)
	if cleaned == "" {
		return fmt.Errorf("genjson: empty reply")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("genjson: decode reply: %w", err)
	}
	return nil
}

// outermost returns the substring spanning the first open delimiter to the
// last close delimiter, or "" when no such span exists.
func outermost(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
