package bridge

import "fmt"

// ErrorKind classifies a TranslationError the way spec.md §7 enumerates
// translation failures.
type ErrorKind string

// Error kinds, per spec.md §7.
const (
	// InvalidInput marks a malformed pipeline: bad BSON shape, a missing
	// required operator field, or a field carrying the wrong BSON type.
	InvalidInput ErrorKind = "INVALID_INPUT"
	// UnknownOperator marks an operator absent from every dispatch
	// table. Translate does not return this kind: under
	// Options.StrictMode an unknown operator fails parsing and is
	// reported as InvalidInput; otherwise the stage is dropped with a
	// WarnUnknownOperatorDropped warning.
	UnknownOperator ErrorKind = "UNKNOWN_OPERATOR"
	// UnsupportedOperator marks an operator this renderer recognizes
	// but cannot translate, even partially.
	UnsupportedOperator ErrorKind = "UNSUPPORTED_OPERATOR"
	// ValidationError marks an identifier, field path, or table name
	// rejected by internal/validator. Translate does not return this
	// kind: the validator runs inside the parser, so its rejections are
	// reported as InvalidInput.
	ValidationError ErrorKind = "VALIDATION_ERROR"
	// IntegrityError marks an internal invariant violation, such as an
	// accumulator expression found outside a grouping context.
	IntegrityError ErrorKind = "INTEGRITY_ERROR"
)

// TranslationError is the single error type Translate returns. Kind
// drives caller-side handling; Operator and FieldPath are populated when
// the failure can be pinned to one, both empty otherwise.
type TranslationError struct {
	Kind      ErrorKind
	Message   string
	Operator  string
	FieldPath string
	Partial   bool // true if a best-effort TranslationResult accompanies this error
	Cause     error
}

func (e *TranslationError) Error() string {
	switch {
	case e.Operator != "" && e.FieldPath != "":
		return fmt.Sprintf("%s: %s (operator=%s, field=%s)", e.Kind, e.Message, e.Operator, e.FieldPath)
	case e.Operator != "":
		return fmt.Sprintf("%s: %s (operator=%s)", e.Kind, e.Message, e.Operator)
	case e.FieldPath != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.FieldPath)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *TranslationError) Unwrap() error { return e.Cause }

func newInvalidInput(format string, args ...any) *TranslationError {
	return &TranslationError{Kind: InvalidInput, Message: fmt.Sprintf(format, args...)}
}

func newUnknownOperator(operator string) *TranslationError {
	return &TranslationError{Kind: UnknownOperator, Message: "operator not recognized by any dispatch table", Operator: operator}
}

func newUnsupportedOperator(operator, reason string) *TranslationError {
	return &TranslationError{Kind: UnsupportedOperator, Message: reason, Operator: operator}
}

func newValidationError(fieldPath, reason string) *TranslationError {
	return &TranslationError{Kind: ValidationError, Message: reason, FieldPath: fieldPath}
}

func newIntegrityError(format string, args ...any) *TranslationError {
	return &TranslationError{Kind: IntegrityError, Message: fmt.Sprintf(format, args...)}
}
