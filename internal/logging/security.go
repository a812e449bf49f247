// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is a security-relevant event such as a user upsert.
type SecurityEvent struct {
	Event     string
	UserID    string
	Username  string
	IPAddress string
	UserAgent string
	Success   bool
	Error     string
	Details   map[string]string
}

// SecurityLogger writes SecurityEvents with sensitive values masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("security")}
}

// NewSecurityLoggerWithLogger is used by tests to capture output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "security").Logger()}
}

// LogEvent writes event at info level, or warn level when it failed.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !event.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", event.Event).Str("status", status)

	if event.UserID != "" {
		e = e.Str("user_id", SanitizeUserID(event.UserID))
	}
	if event.Username != "" {
		e = e.Str("username", SanitizeUsername(event.Username))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeError(event.Error))
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("")
}

// LogUserUpsert records a successful user record write.
func (l *SecurityLogger) LogUserUpsert(userID, username, ip string, created bool) {
	action := "updated"
	if created {
		action = "created"
	}
	l.LogEvent(&SecurityEvent{
		Event:     "user_upsert",
		UserID:    userID,
		Username:  username,
		IPAddress: ip,
		Success:   true,
		Details:   map[string]string{"action": action},
	})
}

// LogInternalTokenRejected records a request to an internal endpoint that
// carried a missing or wrong token.
func (l *SecurityLogger) LogInternalTokenRejected(ip, userAgent, path string) {
	l.LogEvent(&SecurityEvent{
		Event:     "internal_token_rejected",
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   false,
		Details:   map[string]string{"path": path},
	})
}

// SanitizeToken keeps the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID keeps the first and last 4 characters.
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeUsername keeps the first 2 characters.
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks the local part: "john.doe@example.com" -> "jo***@example.com".
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeError replaces messages that mention credentials.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, pattern := range []string{"password", "secret", "token", "key", "bearer", "authorization", "cookie"} {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	return truncateString(err, 200)
}

var sensitiveKeys = map[string]bool{
	"token":          true,
	"internal_token": true,
	"access_token":   true,
	"refresh_token":  true,
	"password":       true,
	"secret":         true,
	"api_key":        true,
	"authorization":  true,
	"cookie":         true,
	"session_id":     true,
}

// SanitizeValue masks value when key names a credential or value looks like an email.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
