// Package email defines the outbound mail collaborator. Delivery mechanics
// are out of scope; the default implementation records the message in the
// application log so environments without an SMTP relay still work.
package email

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// Sender delivers one message. Implementations report failure via the error
// only; the registry never retries.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes outbound mail to the structured log.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "outbound email",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// DeriveNameFromEmail extracts a displayable first/last name from the local
// part of an address, for greeting lines when no profile name exists.
func DeriveNameFromEmail(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
