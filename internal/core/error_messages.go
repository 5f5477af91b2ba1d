// Package core ties the relay, the normalizer and the filter engine together
// for the finder page, the JSON search API and the CLI.
//
// # Error Codes Reference
//
// Technical errors are mapped to user-friendly messages with a code that
// visitors can quote when they report a problem.
//
// # Source Errors (SRC001-SRC099)
//
// The upstream answered, but not with clinic rows:
//
//	SRC001 - Parse failure: Clinic data came back in an unexpected format
//	         Patterns: "failed to parse airtable response"
//
//	SRC002 - Sheet parse failure: The clinic sheet could not be read
//	         Patterns: "failed to parse sheet export", "export has no header row"
//
//	SRC003 - Not authorized: The directory is not allowed to read clinic data
//	         Patterns: "upstream status 401", "upstream status 403"
//
//	SRC004 - Not found: The clinic table could not be found
//	         Patterns: "upstream status 404"
//
//	SRC005 - Throttled: The clinic data service is busy
//	         Patterns: "upstream status 429"
//
//	SRC006 - Unavailable: The clinic data service returned an error
//	         Patterns: "upstream status"
//
// # Relay Errors (RLY001-RLY099)
//
// The request to the upstream never completed:
//
//	RLY001 - Timeout: Patterns "timeout", "deadline exceeded"
//	RLY002 - Cancelled: Patterns "context canceled"
//	RLY003 - Unreachable: Patterns "connection refused", "no such host"
//	RLY004 - TLS: Patterns "certificate"
//	RLY005 - Request failed: Patterns "request failed"
//	RLY006 - Busy: Patterns "too many concurrent upstream fetches"
//
// # Request Errors (REQ001-REQ099)
//
// The visitor's search input could not be used:
//
//	REQ002 - Invalid radius: Patterns "invalid radius"
//	REQ003 - Rate limited: Patterns "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the server logs for the original
// error, correlated by request ID.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgUnauthorized = UserMessage{
		Message: "The directory is not allowed to read clinic data right now",
		Action:  "Please let the site owner know",
		Code:    "SRC003",
	}
	msgTimeout = UserMessage{
		Message: "Loading clinics took too long",
		Action:  "Please try again in a few moments",
		Code:    "RLY001",
	}
	msgUnreachable = UserMessage{
		Message: "The clinic data service could not be reached",
		Action:  "Please try again in a few moments",
		Code:    "RLY003",
	}
)

// errorPatterns is ordered: parse failures are checked before the status
// patterns because a non-JSON error page carries both.
var errorPatterns = []errorPattern{
	// Source errors
	{
		pattern: "failed to parse airtable response",
		msg: UserMessage{
			Message: "Clinic data came back in an unexpected format",
			Action:  "Please try again later",
			Code:    "SRC001",
		},
	},
	{
		pattern: "failed to parse sheet export",
		msg: UserMessage{
			Message: "The clinic sheet could not be read",
			Action:  "Please try again later",
			Code:    "SRC002",
		},
	},
	{
		pattern: "export has no header row",
		msg: UserMessage{
			Message: "The clinic sheet could not be read",
			Action:  "Please try again later",
			Code:    "SRC002",
		},
	},
	{pattern: "upstream status 401", msg: msgUnauthorized},
	{pattern: "upstream status 403", msg: msgUnauthorized},
	{
		pattern: "upstream status 404",
		msg: UserMessage{
			Message: "The clinic table could not be found",
			Action:  "Please let the site owner know",
			Code:    "SRC004",
		},
	},
	{
		pattern: "upstream status 429",
		msg: UserMessage{
			Message: "The clinic data service is busy",
			Action:  "Please wait a moment and try again",
			Code:    "SRC005",
		},
	},
	{
		pattern: "upstream status",
		msg: UserMessage{
			Message: "The clinic data service returned an error",
			Action:  "Please try again later",
			Code:    "SRC006",
		},
	},

	// Relay errors
	{
		pattern: "too many concurrent upstream fetches",
		msg: UserMessage{
			Message: "The clinic directory is busy",
			Action:  "Please wait a moment and try again",
			Code:    "RLY006",
		},
	},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "deadline exceeded", msg: msgTimeout},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RLY002",
		},
	},
	{pattern: "connection refused", msg: msgUnreachable},
	{pattern: "no such host", msg: msgUnreachable},
	{
		pattern: "certificate",
		msg: UserMessage{
			Message: "A secure connection to the clinic data service could not be made",
			Action:  "Please let the site owner know",
			Code:    "RLY004",
		},
	},
	{
		pattern: "request failed",
		msg: UserMessage{
			Message: "Clinic data could not be loaded",
			Action:  "Please try again in a few moments",
			Code:    "RLY005",
		},
	},

	// Request errors
	{
		pattern: "invalid radius",
		msg: UserMessage{
			Message: "That search radius doesn't look right",
			Action:  "Enter a distance in miles, like 10",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Unable to load clinics right now",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
