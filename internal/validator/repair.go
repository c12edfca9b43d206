package validator

import "strings"

// Repair names a heuristic applied to near-miss model output.
type Repair string

const (
	RepairStripFences     Repair = "strip_code_fences"
	RepairTrailingCommas  Repair = "trim_trailing_commas"
	RepairBalanceBrackets Repair = "balance_brackets"
	RepairExtractSpan     Repair = "extract_json_span"
)

type repairStep struct {
	name Repair
	fn   func(string) (string, bool)
}

// repairs run in this order, each at most once per Validate call.
var repairs = []repairStep{
	{RepairStripFences, stripFences},
	{RepairTrailingCommas, trimTrailingCommas},
	{RepairBalanceBrackets, balanceBrackets},
	{RepairExtractSpan, extractSpan},
}

// stripFences returns the body of the first markdown code fence.
func stripFences(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return s, false
	}
	body := s[start+3:]
	// Drop the info string ("json") up to the end of the fence line.
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	body = strings.TrimSpace(body)
	return body, body != s
}

// trimTrailingCommas drops commas that directly precede a closing bracket.
func trimTrailingCommas(s string) (string, bool) {
	var sb strings.Builder
	sb.Grow(len(s))
	changed := false
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			sb.WriteByte(ch)
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
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				changed = true
				continue
			}
		}
		sb.WriteByte(ch)
	}
	return sb.String(), changed
}

// balanceBrackets closes brackets left open by truncated output. Text that
// ends inside a string or has mismatched closers is left alone.
func balanceBrackets(s string) (string, bool) {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
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
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return s, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString || len(stack) == 0 {
		return s, false
	}
	out := strings.TrimRightFunc(s, func(r rune) bool { return r < 0x80 && isSpace(byte(r)) })
	out = strings.TrimSuffix(out, ",")
	var sb strings.Builder
	sb.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteByte(stack[i])
	}
	return sb.String(), true
}

// extractSpan returns the first complete top-level {...} or [...] span.
func extractSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s, false
	}
	open := s[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}
	depth := 0
	inString, escaped := false, false
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
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				span := s[start : i+1]
				return span, span != strings.TrimSpace(s)
			}
		}
	}
	return s, false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
