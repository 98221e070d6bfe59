package core

// error_messages.go maps technical errors to messages a school librarian can
// act on. Each message carries a code that support staff can look up here.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Header not found: no recognizable header row near the top
//	         Patterns: "header row not found"
//	IMP002 - Unknown building: building code does not match a known building
//	         Patterns: "unknown building code"
//	IMP003 - Unreadable workbook: file is not a valid xlsx workbook
//	         Patterns: "workbook is unreadable", "workbook has no sheets"
//	IMP004 - Finished with errors: some rows failed, the rest were saved
//	         Patterns: "import finished with errors"
//	IMP005 - Unknown import kind
//	         Patterns: "unknown import kind"
//	IMP006 - Academic year required for projected enrollment
//	         Patterns: "academic year is required"
//
// # Inventory Errors (INV001-INV099)
//
//	INV001 - Write-off exceeds the available copies
//	INV002 - Building holds no copies of the title
//	INV003 - Write-off count is not positive
//	INV004 - Book title id is unknown
//
// # Database (DB), Validation (VAL), File (FILE), Upload (UPL) and Rate (RATE) Errors
//
// Connection, constraint, size and throttling failures shared with every
// endpoint. ERR000 is the fallback; check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins. IMP004 is listed first because a partial import message
// embeds the row errors, which may contain other patterns.

import (
	"fmt"
	"strings"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Import Errors (IMP001-IMP006)
	// =========================================================================
	{
		pattern: "import finished with errors",
		msg: UserMessage{
			Message: "Some rows could not be imported; the remaining rows were saved",
			Action:  "Fix the listed rows and import the file again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "header row not found",
		msg: UserMessage{
			Message: "The header row was not found in the file",
			Action:  "Use the downloadable template or check the column titles",
			Code:    "IMP001",
		},
	},
	{
		pattern: "unknown building code",
		msg: UserMessage{
			Message: "Building code not recognized",
			Action:  "Use a building number such as 1 or \"Корпус 1\"",
			Code:    "IMP002",
		},
	},
	{
		pattern: "workbook is unreadable",
		msg: UserMessage{
			Message: "The file is not a readable Excel workbook",
			Action:  "Save the file as .xlsx and try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "workbook has no sheets",
		msg: UserMessage{
			Message: "The workbook has no sheets",
			Action:  "Save the file as .xlsx and try again",
			Code:    "IMP003",
		},
	},
	{
		pattern: "unknown import kind",
		msg: UserMessage{
			Message: "Unknown import type",
			Action:  "Choose one of the listed import types",
			Code:    "IMP005",
		},
	},
	{
		pattern: "academic year is required",
		msg: UserMessage{
			Message: "Academic year is required for projected enrollment",
			Action:  "Enter the academic year the projection is for",
			Code:    "IMP006",
		},
	},

	// =========================================================================
	// Inventory Errors (INV001-INV004)
	// =========================================================================
	{
		pattern: "write-off exceeds available stock",
		msg: UserMessage{
			Message: "Not enough free copies to write off",
			Action:  "Reduce the count or return issued copies first",
			Code:    "INV001",
		},
	},
	{
		pattern: "no stock for title in building",
		msg: UserMessage{
			Message: "The building has no copies of this textbook",
			Action:  "Check the building and textbook",
			Code:    "INV002",
		},
	},
	{
		pattern: "write-off count must be positive",
		msg: UserMessage{
			Message: "Write-off count must be at least 1",
			Action:  "Enter a positive number of copies",
			Code:    "INV003",
		},
	},
	{
		pattern: "book title not found",
		msg: UserMessage{
			Message: "Textbook not found",
			Action:  "Check the textbook id",
			Code:    "INV004",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB007)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check the file for repeated ISBNs or catalog numbers",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Check the file for repeated ISBNs or catalog numbers",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import the registry before the curriculum",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation, File, Upload and Rate Errors
	// =========================================================================
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request is missing or has invalid fields",
			Action:  "Check the highlighted fields and try again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Quantities must be whole numbers",
			Code:    "VAL002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the workbook into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select an .xlsx file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a workbook with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
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
}

// defaultMessage is the ERR000 fallback.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the first catalog message whose pattern occurs in err,
// or the ERR000 fallback.
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific catalog entry.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err, or returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
