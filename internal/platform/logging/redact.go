package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// redactedFields are attribute and struct field names whose values never
// reach a log line. jwt_secret covers the auth config when it is logged.
var redactedFields = []string{
	"password",
	"secret",
	"token",
	"apiKey", "apikey", "api_key",
	"accessToken", "access_token",
	"refreshToken", "refresh_token",
	"credential", "credentials",
	"authorization", "auth", "bearer",
	"cookie", "session",
	"privateKey", "private_key",
	"secretKey", "secret_key",
	"JWTSecret", "jwt_secret",
}

// redactedPrefixes extend redactedFields to any name starting with them.
var redactedPrefixes = []string{"secret", "private"}

// redactedValues match values that are credentials whatever their name.
var redactedValues = []*regexp.Regexp{
	// JWT: three base64url segments
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+$`),
	regexp.MustCompile(`(?i)^basic\s+.+$`),
	// Source URLs with user info, such as a private feed.
	regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://[^/@\s]+:[^/@\s]*@`),
}

// DefaultRedactOptions returns the masq options used by every handler.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(redactedFields)+len(redactedPrefixes)+len(redactedValues))

	for _, name := range redactedFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range redactedPrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	for _, pattern := range redactedValues {
		opts = append(opts, masq.WithRegex(pattern))
	}

	return opts
}

// NewReplaceAttr creates a ReplaceAttr function for slog.HandlerOptions
// that redacts DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
