package testkit

import (
	"fmt"
	"strings"
)

// CheckBalanced verifies that braces, brackets and parentheses in generated
// text pair up. String literals and line comments are skipped.
func CheckBalanced(src string) error {
	var stack []byte
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	line := 1
	inString, inComment := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\n':
			line++
			inComment = false
			continue
		case inComment:
			continue
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			inComment = true
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, c)
		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
				return fmt.Errorf("line %d: unbalanced %q", line, c)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

// CheckHeaderGuard verifies a C header opens and closes its include guard.
func CheckHeaderGuard(src, guard string) error {
	if !strings.Contains(src, "#ifndef "+guard+"\n#define "+guard+"\n") {
		return fmt.Errorf("missing include guard %s", guard)
	}
	if !strings.Contains(src, "#endif // "+guard) {
		return fmt.Errorf("include guard %s is not closed", guard)
	}
	return nil
}
