// Package errors defines the sentinel errors shared across gotweak and small
// helpers for wrapping them with context.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrInvalidBoolValue  = fmt.Errorf("invalid boolean value")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")
	ErrInvalidLogFormat  = fmt.Errorf("invalid log format")

	// Method table errors.
	ErrClassNotFound     = fmt.Errorf("class not found")
	ErrClassExists       = fmt.Errorf("class already defined")
	ErrMethodNotFound    = fmt.Errorf("method not found")
	ErrInvalidKey        = fmt.Errorf("invalid method key")
	ErrInvalidScope      = fmt.Errorf("invalid method scope")
	ErrStaleOriginal     = fmt.Errorf("original implementation is stale")
	ErrNilImplementation = fmt.Errorf("implementation cannot be nil")

	// Hook errors.
	ErrNilTarget          = fmt.Errorf("hook target cannot be empty")
	ErrUnresolvedSelector = fmt.Errorf("selector not resolvable on target")
	ErrAlreadyInstalled   = fmt.Errorf("hook is already installed")
	ErrSlotClaimed        = fmt.Errorf("method is already hooked")
	ErrNoReplacement      = fmt.Errorf("hook has no replacement implementation")
	ErrHookScript         = fmt.Errorf("hook script error")
	ErrHookLoad           = fmt.Errorf("failed to load hook script")

	// Tweak errors.
	ErrNilHook            = fmt.Errorf("tweak hook cannot be nil")
	ErrTweakNotFound      = fmt.Errorf("tweak not found")
	ErrUnsupportedVersion = fmt.Errorf("unsupported tweak record version")
	ErrInvalidRecord      = fmt.Errorf("invalid tweak record")

	// Value errors.
	ErrInvalidValue    = fmt.Errorf("invalid value")
	ErrUnsupportedKind = fmt.Errorf("unsupported value kind")

	// Store errors.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// Bundle errors.
	ErrInvalidBundle    = fmt.Errorf("invalid tweak bundle")
	ErrUnsafeBundlePath = fmt.Errorf("bundle entry escapes destination")
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join returns an error that wraps the given errors, or nil if all are nil.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
