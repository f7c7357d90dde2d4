package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates the configuration file could not be loaded or validated
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// TableInvalid indicates a command vocabulary table failed to decode or validate
	TableInvalid ErrorCode = "TABLE_INVALID"
	// FileUnreadable indicates a source file could not be read
	FileUnreadable ErrorCode = "FILE_UNREADABLE"
	// StoreUnavailable indicates the scan index database could not be opened or written
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// UnsupportedFormat indicates an unknown output or export format
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// PatchInvalid indicates a unified diff could not be parsed
	PatchInvalid ErrorCode = "PATCH_INVALID"
	// IndexLocked indicates another process is writing the scan index
	IndexLocked ErrorCode = "INDEX_LOCKED"
	// CommandNotFound indicates a command name is not in the vocabulary
	CommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// DoxyError represents an error with a stable code, message, and suggestions
type DoxyError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a DoxyError carrying the default fixes for its code.
func New(code ErrorCode, message string, cause error) *DoxyError {
	return NewDoxyError(code, message, cause, GetSuggestedFixes(code))
}

// NewDoxyError creates a new DoxyError
func NewDoxyError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *DoxyError {
	return &DoxyError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Error implements the error interface
func (e *DoxyError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DoxyError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *DoxyError) WithDetails(details interface{}) *DoxyError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first DoxyError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var de *DoxyError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "doxyscan config init --force",
			Description: "Rewrite .doxyscan/config.json with defaults",
		},
	},
	TableInvalid: {
		{
			Type:        RunCommand,
			Command:     "doxyscan commands export > commands.toml",
			Safe:        true,
			Description: "Start from the built-in command table",
		},
	},
	StoreUnavailable: {
		{
			Type:        RunCommand,
			Command:     "doxyscan index --rebuild",
			Description: "Recreate the scan index",
		},
	},
	IndexLocked: {
		{
			Type:        RunCommand,
			Command:     "doxyscan index status",
			Safe:        true,
			Description: "Check whether a run is still in progress",
		},
	},
	CommandNotFound: {
		{
			Type:        RunCommand,
			Command:     "doxyscan commands list",
			Safe:        true,
			Description: "List known commands",
		},
	},
	UnsupportedFormat: {
		{
			Type:        OpenDocs,
			Description: "Supported formats are json, human and yaml",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
