package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer masks credentials and personal paths in log output.
//
// Values are masked when their key looks sensitive (token, secret, ...), and every
// message and string value is rewritten through the pattern rules. A secret hidden
// under an innocent key and not matching any pattern still gets through.
type Sanitizer struct {
	mu       sync.RWMutex
	patterns []SanitizeRule
}

// SanitizeRule rewrites matches of Pattern with Replacement
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultSanitizeRules(),
	}
}

func defaultSanitizeRules() []SanitizeRule {
	return []SanitizeRule{
		{regexp.MustCompile(`(?i)password=\S+`), "password=***"},

		// OAuth material in query strings and token responses
		{regexp.MustCompile(`(?i)(access_token|refresh_token|id_token)=[^&\s]+`), "$1=***"},
		{regexp.MustCompile(`(?i)"(access_token|refresh_token|id_token)"\s*:\s*"[^"]*"`), `"$1":"***"`},
		{regexp.MustCompile(`(?i)client_secret=[^&\s]+`), "client_secret=***"},
		{regexp.MustCompile(`(?i)([?&])code=[^&\s]+`), "${1}code=***"},
		{regexp.MustCompile(`(?i)\btoken=[^&\s]+`), "token=***"},
		{regexp.MustCompile(`(?i)bearer\s+\S+`), "bearer ***"},
		{regexp.MustCompile(`(?i)api[_-]?key=\S+`), "api_key=***"},

		// user home directories
		{regexp.MustCompile(`(?i)[A-Z]:\\Users\\[^\\]+`), "***:\\Users\\***"},
		{regexp.MustCompile(`/home/[^/\s]+`), "/home/***"},
		{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/***"},

		{regexp.MustCompile(`([a-zA-Z0-9._%+-]{1,3})[a-zA-Z0-9._%+-]*@`), "$1***@"},
	}
}

// Sanitize applies every pattern rule to input
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := input
	for _, rule := range s.patterns {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// SanitizeArgs returns a copy of key/value args with sensitive values masked
// and string values run through Sanitize
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}

		var value string
		switch v := result[i+1].(type) {
		case string:
			value = v
		case error:
			value = v.Error()
		default:
			continue
		}

		if isSensitiveKey(key) {
			result[i+1] = maskValue(value)
		} else {
			result[i+1] = s.Sanitize(value)
		}
	}

	return result
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"token", "secret", "api_key", "apikey",
	"credential", "auth",
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(lowerKey, sk) {
			return true
		}
	}
	return false
}

// maskValue keeps at most the first and last character
func maskValue(value string) string {
	if len(value) <= 2 {
		return "***"
	}
	if len(value) <= 8 {
		return fmt.Sprintf("%s***", value[:1])
	}
	return fmt.Sprintf("%s***%s", value[:1], value[len(value)-1:])
}

// AddRule appends a custom pattern rule
func (s *Sanitizer) AddRule(pattern string, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, SanitizeRule{
		Pattern:     re,
		Replacement: replacement,
	})
	return nil
}
