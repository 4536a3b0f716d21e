package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/screenwiper/constants"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error

	kind error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel the error was classified under, independent of its cause.
func (e *AppError) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrAcquisition  = errors.New("image acquisition failed")
	ErrRecognition  = errors.New("recognition failed")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAcquisitionError reports an image that could not be fetched or read.
func NewAcquisitionError(ref string, cause error) *AppError {
	return &AppError{Code: "ACQUISITION_FAILED", Message: ref, Cause: cause, kind: ErrAcquisition}
}

// NewRecognitionError reports an OCR or NER collaborator failure, including
// provider-level error payloads.
func NewRecognitionError(stage constants.Stage, cause error) *AppError {
	return &AppError{Code: "RECOGNITION_FAILED", Message: string(stage), Cause: cause, kind: ErrRecognition}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToGRPCError maps application errors onto gRPC status codes.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrAcquisition), errors.Is(err, ErrRecognition):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return InternalError(err.Error())
	}
}
