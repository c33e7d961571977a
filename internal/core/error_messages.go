package core

// # Error Codes Reference
//
// User-facing errors carry a short code that can be quoted when reporting a
// problem. Typed errors are matched first (errors.As / errors.Is); anything
// else falls through to case-insensitive substring patterns.
//
// # Path Errors (PATH001-PATH099)
//
//	PATH001 - Unsupported format: the file extension is not registered
//	          Action: Use a .csv, .json or .xml file
//	PATH002 - No files: the arguments resolved to no importable file
//	          Action: Pass a supported file or a directory containing one
//	PATH003 - Bad path: the path does not exist or cannot be read
//	          Action: Check the path and its permissions
//
// # File Content Errors (PARSE001, NORM001)
//
//	PARSE001 - The file is malformed and stopped parsing partway
//	NORM001  - A row is missing a required field or holds a non-numeric value
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key         Patterns: "duplicate key"
//	DB002 - Unique constraint     Patterns: "unique constraint", "violates unique"
//	DB003 - Connection refused    Patterns: "connection refused"
//	DB004 - Connection reset      Patterns: "connection reset"
//	DB005 - Timeout               Patterns: "timeout", "context deadline exceeded"
//	DB006 - Missing schema        Patterns: "does not exist", "no such table"
//
// # Default Error (ERR000)
//
// Returned when nothing matches. Check the logs for the technical error.

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgUnsupported = UserMessage{
		Message: "Unsupported file format",
		Action:  "Use a .csv, .json or .xml file",
		Code:    "PATH001",
	}
	msgNoFiles = UserMessage{
		Message: "No importable files were found",
		Action:  "Pass a supported file or a directory containing one",
		Code:    "PATH002",
	}
	msgBadPath = UserMessage{
		Message: "The path does not exist or cannot be read",
		Action:  "Check the path and its permissions",
		Code:    "PATH003",
	}
	msgParse = UserMessage{
		Message: "The file is malformed",
		Action:  "Fix the reported record and import the file again",
		Code:    "PARSE001",
	}
	msgNormalize = UserMessage{
		Message: "A record could not be converted",
		Action:  "Check required fields and numeric values in the reported row",
		Code:    "NORM001",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB005",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is searched in order; the first match wins, so specific
// patterns come before general ones.
var errorPatterns = []errorPattern{
	// DB001 and DB002 only fire against a schema that makes external_id
	// unique; the bundled migrations keep it non-unique and index it.
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Review the file for duplicate identifiers",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Review the file for duplicate identifiers",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review the file for duplicate identifiers",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and that the database is running",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The database schema is missing",
			Action:  "Run the migrate command first",
			Code:    "DB006",
		},
	},
	{
		pattern: "no such table",
		msg: UserMessage{
			Message: "The database schema is missing",
			Action:  "Run the migrate command first",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		parseErr *ParseError
		normErr  *NormalizationError
	)
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return msgUnsupported
	case errors.Is(err, ErrNoFilePaths):
		return msgNoFiles
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.As(err, &parseErr):
		return msgParse
	case errors.As(err, &normErr):
		return msgNormalize
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return msgBadPath
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return msgBadPath
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
