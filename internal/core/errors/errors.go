package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"

	CodeManifestParse   ErrorCode = "MANIFEST_PARSE_ERROR"
	CodeDuplicateClass  ErrorCode = "DUPLICATE_CLASS"
	CodePathOutsideRoot ErrorCode = "PATH_OUTSIDE_ROOT"
	CodeAliasFormat     ErrorCode = "ALIAS_FORMAT_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxPackage   = "package"
	CtxClass     = "class"
	CtxOperation = "operation"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value to the first DomainError in err's chain,
// wrapping plain errors as internal errors.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the first DomainError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// ManifestParse reports a package descriptor that exists but cannot be decoded.
func ManifestParse(path string, err error) error {
	return (&DomainError{Code: CodeManifestParse, Message: "malformed package manifest", Err: err}).
		WithContext(CtxPath, path)
}

// DuplicateClass reports one class name declared in two files of the same package.
func DuplicateClass(class, first, second string) error {
	return (&DomainError{
		Code:    CodeDuplicateClass,
		Message: fmt.Sprintf("class %q is declared in %s and %s", class, first, second),
	}).WithContext(CtxClass, class)
}

// PathOutsideRoot reports a path that cannot be expressed relative to the install root.
func PathOutsideRoot(root, path string) error {
	return (&DomainError{
		Code:    CodePathOutsideRoot,
		Message: fmt.Sprintf("path is not under install root %s", root),
	}).WithContext(CtxPath, path)
}

// AliasFormat reports an alias definition file that is not a flat mapping.
func AliasFormat(path, reason string) error {
	return (&DomainError{
		Code:    CodeAliasFormat,
		Message: "class alias map must be a flat mapping: " + reason,
	}).WithContext(CtxPath, path)
}
