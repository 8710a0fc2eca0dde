package analyze

import "strings"

var fences = []string{"```", `"""`}

// ExtractPayload pulls the JSON payload out of a model reply.
//
// The first fence (``` or """, optionally followed by a language tag on
// the same line) opens the payload and the next matching fence closes it.
// A reply with no fence is used whole. An opening fence that is never
// closed yields everything after its line. All results are trimmed, and an
// empty result is a *ResponseParseError.
func ExtractPayload(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ResponseParseError{Raw: text, Reason: "response contains no text"}
	}

	start, fence := firstFence(text)
	if start < 0 {
		return strings.TrimSpace(text), nil
	}

	body := text[start+len(fence):]
	// Drop the rest of the opening line only when it is a bare language tag,
	// so single-line blocks like ```{...}``` keep their content.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isTag(body[:nl]) {
		body = body[nl+1:]
	} else if nl < 0 && isTag(body) {
		body = ""
	}

	if end := strings.Index(body, fence); end >= 0 {
		payload := strings.TrimSpace(body[:end])
		if payload == "" {
			return "", &ResponseParseError{Raw: text, Reason: "fenced block is empty"}
		}
		return payload, nil
	}

	payload := strings.TrimSpace(body)
	if payload == "" {
		return "", &ResponseParseError{Raw: text, Reason: "unterminated fence with no content"}
	}
	return payload, nil
}

func firstFence(text string) (int, string) {
	best, which := -1, ""
	for _, f := range fences {
		if i := strings.Index(text, f); i >= 0 && (best < 0 || i < best) {
			best, which = i, f
		}
	}
	return best, which
}

// isTag reports whether s is empty or a single word like "json".
func isTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
