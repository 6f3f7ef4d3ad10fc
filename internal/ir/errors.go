package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes node errors.
type ErrorCode string

const (
	// CodeInvalidNode indicates a node that is absent, null, or not a record.
	CodeInvalidNode ErrorCode = "INVALID_NODE"

	// CodeMissingType indicates a node without a non-empty string type.
	CodeMissingType ErrorCode = "MISSING_TYPE"

	// CodeLimitExceeded indicates a caller-imposed depth or size limit was hit.
	CodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"
)

// Sentinel errors matched by NodeError.Is.
var (
	ErrInvalidNode   = errors.New("missing or malformed node")
	ErrMissingType   = errors.New("node missing type")
	ErrLimitExceeded = errors.New("tree exceeds limit")
)

// NodeError reports a structural problem at a specific position of a tree.
type NodeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Path locates the failing node, e.g. "value_inputs.A.next".
	// Empty for the root.
	Path string

	// Message adds detail beyond the category (optional).
	Message string
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	msg := e.sentinel().Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Is matches the sentinel for the error's code.
func (e *NodeError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *NodeError) sentinel() error {
	switch e.Code {
	case CodeMissingType:
		return ErrMissingType
	case CodeLimitExceeded:
		return ErrLimitExceeded
	default:
		return ErrInvalidNode
	}
}

// NewInvalidNodeError creates a NodeError for a missing or malformed node.
func NewInvalidNodeError(path Path, message string) *NodeError {
	return &NodeError{Code: CodeInvalidNode, Path: path.String(), Message: message}
}

// NewMissingTypeError creates a NodeError for a node without a type.
func NewMissingTypeError(path Path) *NodeError {
	return &NodeError{Code: CodeMissingType, Path: path.String()}
}

// NewLimitError creates a NodeError for an exceeded limit.
func NewLimitError(path Path, message string) *NodeError {
	return &NodeError{Code: CodeLimitExceeded, Path: path.String(), Message: message}
}

// CodeOf returns the NodeError code carried by err, or "" if err is not
// (and does not wrap) a NodeError.
func CodeOf(err error) ErrorCode {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.Code
	}
	return ""
}
