package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

// RedactedPlaceholder replaces detected credentials in log output.
const RedactedPlaceholder = "[REDACTED]"

// secretPatterns match credential shapes that reach this service: hub
// tokens on download requests, API keys for the remote image endpoint,
// and generic key=value assignments.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`hf_[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{16,}`),
	regexp.MustCompile(`(?i)(password|secret|token|api_key|apikey)\s*[:=]\s*[^\s,;]{8,}`),
}

// sensitiveKeyParts flag field names whose value is a credential
// regardless of its shape.
var sensitiveKeyParts = []string{
	"TOKEN",
	"API_KEY",
	"APIKEY",
	"SECRET",
	"PASSWORD",
}

// RedactSecrets scans s and replaces anything that looks like a
// credential.
func RedactSecrets(s string) string {
	if s == "" {
		return s
	}
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, RedactedPlaceholder)
	}
	return s
}

// IsSensitiveKey reports whether a field name indicates a credential
// value.
func IsSensitiveKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(upper, part) {
			return true
		}
	}
	return false
}

// redactingCore filters entries before the wrapped core encodes them.
// Only string fields are inspected; binary payloads pass through.
type redactingCore struct {
	zapcore.Core
}

func newRedactingCore(c zapcore.Core) zapcore.Core {
	return &redactingCore{Core: c}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = RedactSecrets(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			if IsSensitiveKey(f.Key) {
				f.String = RedactedPlaceholder
			} else {
				f.String = RedactSecrets(f.String)
			}
		}
		out[i] = f
	}
	return out
}
