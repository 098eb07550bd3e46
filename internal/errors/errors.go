package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all fatal failure modes.
// Recoverable problems (unreadable files, malformed markers, dangling
// references) are carried as warnings and diagnostics in the report,
// never as errors.
type ErrorCode string

const (
	// RootNotFound indicates the scan root directory does not exist
	RootNotFound ErrorCode = "ROOT_NOT_FOUND"
	// RootNotReadable indicates the scan root directory cannot be opened
	RootNotReadable ErrorCode = "ROOT_NOT_READABLE"
	// ConfigInvalid indicates the configuration file failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ScopeUnknown indicates a scope name with no configured predicate set
	ScopeUnknown ErrorCode = "SCOPE_UNKNOWN"
	// ManifestInvalid indicates TRACE.toml could not be parsed
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// WorkspaceInvalid indicates workspace.toml is missing or malformed
	WorkspaceInvalid ErrorCode = "WORKSPACE_INVALID"
	// HistoryUnavailable indicates the run-history database cannot be opened
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// RunNotFound indicates no stored run matches the requested id
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// NoRunsRecorded indicates the history database holds no runs yet
	NoRunsRecorded ErrorCode = "NO_RUNS_RECORDED"
	// ExportFailed indicates the report bundle could not be written
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests editing a configuration file
	EditConfig FixActionType = "edit-config"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	File        string        `json:"file,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// TraceError represents a tracelink error with code, message, and suggestions
type TraceError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a TraceError with the default fixes for its code
func New(code ErrorCode, message string) *TraceError {
	return &TraceError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Wrap creates a TraceError around an underlying cause
func Wrap(code ErrorCode, message string, cause error) *TraceError {
	e := New(code, message)
	e.cause = cause
	return e
}

// Error implements the error interface
func (e *TraceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TraceError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *TraceError) WithDetails(details interface{}) *TraceError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RootNotFound: {
		{
			Type:        RunCommand,
			Command:     "tracelink config",
			Safe:        true,
			Description: "Show the effective root directory and scopes",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "tracelink init --force",
			Safe:        false,
			Description: "Regenerate the default configuration",
		},
		{
			Type:        EditConfig,
			File:        ".tracelink/config.json",
			Description: "Fix the invalid field by hand",
		},
	},
	ScopeUnknown: {
		{
			Type:        RunCommand,
			Command:     "tracelink config",
			Safe:        true,
			Description: "List the configured scope names",
		},
	},
	WorkspaceInvalid: {
		{
			Type:        RunCommand,
			Command:     "tracelink workspace add --label main --path .",
			Safe:        false,
			Description: "Create a workspace with a first scan root",
		},
	},
	NoRunsRecorded: {
		{
			Type:        RunCommand,
			Command:     "tracelink scan",
			Safe:        true,
			Description: "Record a first scan in the run history",
		},
	},
	RunNotFound: {
		{
			Type:        RunCommand,
			Command:     "tracelink history",
			Safe:        true,
			Description: "List recorded run ids",
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

// CodeOf extracts the ErrorCode from an error, returning InternalError
// for anything that is not a TraceError.
func CodeOf(err error) ErrorCode {
	if te, ok := err.(*TraceError); ok {
		return te.Code
	}
	return InternalError
}
