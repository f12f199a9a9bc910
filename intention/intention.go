// Package intention turns free-form model output into structured tool
// commands. Models are asked for a JSON object holding a list of
// call-expression strings; in practice they wrap it in prose, markdown, or
// almost-JSON, so parsing is two-pass: a strict decode first, then a
// balanced-brace recovery sweep.
package intention

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// TerminalSentinel is the reserved call the model emits when it has nothing
// left to do. Matching is case- and whitespace-insensitive.
const TerminalSentinel = "END()"

// Command is one parsed tool invocation.
type Command struct {
	// Name is the tool to invoke.
	Name string

	// Args holds the keyword arguments, values decoded as JSON literals.
	Args map[string]any

	// Raw preserves the original call expression for error reporting.
	Raw string
}

// Decision is the structured outcome of one model decision turn. Terminal is
// set when the sentinel was present or the command list was empty; commands
// may accompany the sentinel, in which case they still run first.
type Decision struct {
	Commands []Command
	Terminal bool
}

// ParseError reports that no decision could be recovered from the output.
// Callers re-prompt once for strict JSON before surfacing it; defaulting to
// termination on a parse failure hides real errors and is never done here.
type ParseError struct {
	Reason string
	Input  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("intention: %s", e.Reason)
}

type payload struct {
	Tools []string `json:"tools"`
}

// Parse extracts a Decision from raw model output.
func Parse(raw string) (*Decision, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	d := &Decision{}
	if len(p.Tools) == 0 {
		// An empty list means the model is done.
		d.Terminal = true
		return d, nil
	}
	for _, call := range p.Tools {
		if isTerminal(call) {
			d.Terminal = true
			continue
		}
		cmd, err := parseCall(call)
		if err != nil {
			return nil, &ParseError{Reason: err.Error(), Input: raw}
		}
		d.Commands = append(d.Commands, cmd)
	}
	if len(d.Commands) == 0 {
		d.Terminal = true
	}
	return d, nil
}

// decodePayload runs the two parse passes.
func decodePayload(raw string) (*payload, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, &ParseError{Reason: "no JSON object in output", Input: raw}
	}

	// Pass 1: strict decode of the first value. json.Decoder stops at the end
	// of the object, so trailing prose is fine.
	var p payload
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	if err := dec.Decode(&p); err == nil && p.Tools != nil {
		return &p, nil
	}

	// Pass 2: extract the first balanced-brace span and retry, tolerating
	// single-quoted almost-JSON.
	span, ok := balancedSpan(raw[start:])
	if !ok {
		return nil, &ParseError{Reason: "unbalanced braces in output", Input: raw}
	}
	p = payload{}
	if err := json.Unmarshal([]byte(span), &p); err == nil && p.Tools != nil {
		return &p, nil
	}
	p = payload{}
	if err := json.Unmarshal([]byte(singleToDoubleQuotes(span)), &p); err == nil && p.Tools != nil {
		return &p, nil
	}
	return nil, &ParseError{Reason: `no "tools" list could be decoded`, Input: raw}
}

// balancedSpan returns the prefix of s covering the first balanced {...}
// block, ignoring braces inside string literals.
func balancedSpan(s string) (string, bool) {
	depth := 0
	inString := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// singleToDoubleQuotes rewrites single-quoted string literals to JSON form.
// It is intentionally simple: good enough for Python-flavoured dict output,
// not a general transformation.
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inDouble:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == '"' {
				inDouble = false
			}
			b.WriteByte(c)
		case inSingle:
			switch c {
			case '\'':
				inSingle = false
				b.WriteByte('"')
			case '"':
				b.WriteString(`\"`)
			case '\\':
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i++
				} else {
					b.WriteByte(c)
				}
			default:
				b.WriteByte(c)
			}
		default:
			switch c {
			case '\'':
				inSingle = true
				b.WriteByte('"')
			case '"':
				inDouble = true
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func isTerminal(call string) bool {
	normalized := strings.ToLower(strings.Join(strings.Fields(call), ""))
	return normalized == strings.ToLower(TerminalSentinel)
}

var callRe = regexp.MustCompile(`(?s)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*$`)

// parseCall splits "Name(arg=value, ...)" into a Command. Values are decoded
// as JSON literals; single-quoted and bare values fall back to strings.
func parseCall(call string) (Command, error) {
	m := callRe.FindStringSubmatch(call)
	if m == nil {
		return Command{}, fmt.Errorf("malformed call expression %q", call)
	}
	cmd := Command{Name: m[1], Args: map[string]any{}, Raw: strings.TrimSpace(call)}

	argsSrc := strings.TrimSpace(m[2])
	if argsSrc == "" {
		return cmd, nil
	}
	for _, pair := range splitArgs(argsSrc) {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return Command{}, fmt.Errorf("argument %q in %q is not keyword form", pair, call)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Command{}, fmt.Errorf("empty argument name in %q", call)
		}
		cmd.Args[key] = parseValue(strings.TrimSpace(value))
	}
	return cmd, nil
}

// splitArgs splits on top-level commas, leaving commas inside quotes,
// brackets, and braces alone.
func splitArgs(s string) []string {
	var (
		parts    []string
		depth    int
		inString bool
		quote    byte
		start    int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func parseValue(v string) any {
	var out any
	if err := json.Unmarshal([]byte(v), &out); err == nil {
		return out
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		inner := strings.ReplaceAll(v[1:len(v)-1], `\'`, `'`)
		return inner
	}
	// Bare token; keep it as a string so tools can still see it.
	return v
}
