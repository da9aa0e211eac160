// Package core provides the dataset model and the computations behind the dashboard.
//
// # Error Codes Reference
//
// This file maps technical load and request errors to user-friendly messages
// with codes for support reference. The dashboard shows the message next to
// the dataset name; the technical text stays in the logs and the JSON API.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Timeout: The data source did not answer in time
//	         Patterns: "timeout"
//
//	SRC002 - Not found: The sheet tab was not found
//	         Patterns: "unexpected status 404", "no such file or directory"
//
//	SRC003 - Not shared: The sheet is not readable without signing in
//	         Patterns: "unexpected status 401", "unexpected status 403"
//
//	SRC004 - Bad status: The data source returned an error
//	         Patterns: "unexpected status"
//
//	SRC005 - Unreachable: Unable to reach the data source
//	         Patterns: "connection refused", "no such host", "connection reset"
//
//	SRC006 - Certificate: Certificate verification failed
//	         Patterns: "certificate", "x509"
//
// # Parse Errors (CSV001-CSV099)
//
//	CSV001 - Field count: Rows have an inconsistent number of columns
//	         Patterns: "wrong number of fields"
//
//	CSV002 - Quoting: The sheet export has unbalanced quotes
//	         Patterns: "bare \"", "extraneous or missing \""
//
//	CSV003 - Empty: The sheet is empty
//	         Patterns: "empty file"
//
//	CSV004 - Too large: The sheet export is too large
//	         Patterns: "body too large"
//
// # Request Errors
//
//	TBL001  - Table not found: The requested tab does not exist
//	RATE001 - Rate limited: Too many requests
//	REQ001  - Request cancelled
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so more specific patterns come before general ones.
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

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgTimeout = UserMessage{
		Message: "The data source did not answer in time",
		Action:  "Use Reload to try again",
		Code:    "SRC001",
	}
	msgNotFound = UserMessage{
		Message: "The sheet tab was not found",
		Action:  "Check that the dataset name matches the tab name exactly",
		Code:    "SRC002",
	}
	msgNotShared = UserMessage{
		Message: "The sheet is not readable without signing in",
		Action:  "Share the spreadsheet so anyone with the link can view it",
		Code:    "SRC003",
	}
	msgUnreachable = UserMessage{
		Message: "Unable to reach the data source",
		Action:  "Check the network connection and use Reload",
		Code:    "SRC005",
	}
	msgCertificate = UserMessage{
		Message: "Certificate verification failed",
		Action:  "Fix the system certificate store; ALLOW_INSECURE_TRANSPORT is for local diagnostics only",
		Code:    "SRC006",
	}
	msgQuoting = UserMessage{
		Message: "The sheet export has unbalanced quotes",
		Action:  "Look for a stray quote character in the sheet",
		Code:    "CSV002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: specific status codes come before the generic status pattern.
var errorPatterns = []errorPattern{
	// Source errors
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "deadline exceeded", msg: msgTimeout},
	{pattern: "unexpected status 404", msg: msgNotFound},
	{pattern: "no such file or directory", msg: msgNotFound},
	{pattern: "unexpected status 401", msg: msgNotShared},
	{pattern: "unexpected status 403", msg: msgNotShared},
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The data source returned an error",
			Action:  "Use Reload to try again later",
			Code:    "SRC004",
		},
	},
	{pattern: "connection refused", msg: msgUnreachable},
	{pattern: "connection reset", msg: msgUnreachable},
	{pattern: "no such host", msg: msgUnreachable},
	{pattern: "x509", msg: msgCertificate},
	{pattern: "certificate", msg: msgCertificate},

	// Parse errors
	{
		pattern: "wrong number of fields",
		msg: UserMessage{
			Message: "Rows have an inconsistent number of columns",
			Action:  "Check the sheet for cells outside the header range",
			Code:    "CSV001",
		},
	},
	{pattern: `bare "`, msg: msgQuoting},
	{pattern: `extraneous or missing "`, msg: msgQuoting},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The sheet is empty",
			Action:  "Add a header row to the sheet",
			Code:    "CSV003",
		},
	},
	{
		pattern: "body too large",
		msg: UserMessage{
			Message: "The sheet export is too large",
			Action:  "Split the sheet into smaller tabs",
			Code:    "CSV004",
		},
	},

	// Request errors
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "The requested tab does not exist",
			Action:  "Pick a tab from the list",
			Code:    "TBL001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
}

// defaultMessage is returned when no specific pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return MapMessage(err.Error())
}

// MapMessage is MapError for an already-rendered error string, such as a
// LoadError message.
func MapMessage(msg string) UserMessage {
	lower := strings.ToLower(msg)
	for _, ep := range errorPatterns {
		if strings.Contains(lower, strings.ToLower(ep.pattern)) {
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

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
