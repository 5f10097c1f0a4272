// Package replacer implements the /pattern/replacement/ chains used to
// derive generated module artifactIds and directory names from test jar
// artifactIds.
package replacer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedRule reports a rule token that does not have the
// /pattern/replacement/ shape.
var ErrMalformedRule = errors.New("malformed replacer rule")

// Rule is a single find/replace rule. The replacement may use Go regexp
// group references such as $1.
type Rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Chain is an ordered list of rules applied left to right. The zero
// value is the identity chain.
type Chain struct {
	rules []Rule
}

// Parse builds a Chain from a comma or whitespace separated list of
// /pattern/replacement/ tokens. An empty spec yields the identity chain.
func Parse(spec string) (Chain, error) {
	if strings.TrimSpace(spec) == "" {
		return Chain{}, nil
	}

	tokens := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	rules := make([]Rule, 0, len(tokens))
	for _, token := range tokens {
		rule, err := parseRule(token)
		if err != nil {
			return Chain{}, err
		}
		rules = append(rules, rule)
	}
	return Chain{rules: rules}, nil
}

// parseRule validates the three-slash shape and compiles the pattern.
func parseRule(token string) (Rule, error) {
	if !strings.HasPrefix(token, "/") {
		return Rule{}, fmt.Errorf("%w: must start with a slash; found %q", ErrMalformedRule, token)
	}
	if !strings.HasSuffix(token, "/") || len(token) < 2 {
		return Rule{}, fmt.Errorf("%w: must end with a slash; found %q", ErrMalformedRule, token)
	}
	trimmed := token[1 : len(token)-1]
	slash := strings.Index(trimmed, "/")
	if slash < 0 {
		return Rule{}, fmt.Errorf("%w: must contain three slashes; found %q", ErrMalformedRule, token)
	}
	pattern, err := regexp.Compile(trimmed[:slash])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: invalid pattern in %q: %v", ErrMalformedRule, token, err)
	}
	return Rule{pattern: pattern, replacement: trimmed[slash+1:]}, nil
}

// Apply runs every rule over the output of the previous one and returns
// the final string. Each rule replaces all non-overlapping matches in a
// single pass.
func (c Chain) Apply(input string) string {
	for _, rule := range c.rules {
		input = rule.pattern.ReplaceAllString(input, rule.replacement)
	}
	return input
}

// Len returns the number of rules in the chain.
func (c Chain) Len() int {
	return len(c.rules)
}
