package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Every typed error below matches its
// sentinel through errors.Is.
var (
	ErrConfig      = errors.New("configuration error")
	ErrStateExists = errors.New("state already exists")
	ErrRPC         = errors.New("rpc error")
	ErrDeployment  = errors.New("rollup deployment failed")
	ErrWhitelist   = errors.New("validator whitelisting failed")
	ErrKeystore    = errors.New("keystore error")
	ErrParse       = errors.New("parse error")
)

// ConfigError reports invalid arguments or configuration.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// StateExistsError reports an output directory that is present without --force.
type StateExistsError struct {
	Path string
}

func (e *StateExistsError) Error() string {
	return fmt.Sprintf("%s already exists. First manually delete it or run with --force", e.Path)
}

func (e *StateExistsError) Is(target error) bool { return target == ErrStateExists }

// RPCError wraps a failure talking to the node: submission, receipt retrieval or a reverted
// transaction.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

func (e *RPCError) Is(target error) bool { return target == ErrRPC }

// ToolError is the shared shape of failures coming from an external tool. Output holds the
// combined stdout/stderr of the tool when there was any.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if e.Output != "" {
		msg += fmt.Sprintf(", output: %s", e.Output)
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// DeploymentError reports a failed rollup deployment or an unreadable artifact.
type DeploymentError struct {
	ToolError
}

func (e *DeploymentError) Is(target error) bool { return target == ErrDeployment }

// NewDeploymentError creates a DeploymentError.
func NewDeploymentError(tool, output string, err error) *DeploymentError {
	return &DeploymentError{ToolError{Tool: tool, Output: output, Err: err}}
}

// WhitelistError reports a failed validator whitelisting.
type WhitelistError struct {
	ToolError
}

func (e *WhitelistError) Is(target error) bool { return target == ErrWhitelist }

// NewWhitelistError creates a WhitelistError.
func NewWhitelistError(tool, output string, err error) *WhitelistError {
	return &WhitelistError{ToolError{Tool: tool, Output: output, Err: err}}
}

// KeystoreError reports a key encryption or key file write failure.
type KeystoreError struct {
	Path string
	Err  error
}

func (e *KeystoreError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("keystore: %v", e.Err)
	}
	return fmt.Sprintf("keystore %s: %v", e.Path, e.Err)
}

func (e *KeystoreError) Unwrap() error { return e.Err }

func (e *KeystoreError) Is(target error) bool { return target == ErrKeystore }

// ParseError reports an unexpected shape of an event log, artifact or registry file.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("failed to parse %s: %v", e.What, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
