package common

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/screenwiper/constants"
)

func TestTypedErrors(t *testing.T) {
	cause := errors.New("dial tcp: timeout")

	acq := NewAcquisitionError("https://img.example/a.png", cause)
	if !errors.Is(acq, ErrAcquisition) || !errors.Is(acq, cause) {
		t.Errorf("acquisition error does not match sentinel and cause: %v", acq)
	}
	if errors.Is(acq, ErrRecognition) {
		t.Error("acquisition error should not match ErrRecognition")
	}

	rec := NewRecognitionError(constants.StageNER, cause)
	if !errors.Is(WrapError(rec, "pipeline"), ErrRecognition) {
		t.Error("wrapped recognition error lost its sentinel")
	}
	if got := rec.Error(); got != "RECOGNITION_FAILED: ner: dial tcp: timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestToGRPCError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{err: NewAppError("BAD", "x", ErrInvalidInput), want: codes.InvalidArgument},
		{err: NewAcquisitionError("u", errors.New("404")), want: codes.Unavailable},
		{err: errors.New("boom"), want: codes.Internal},
		{err: status.Error(codes.NotFound, "nope"), want: codes.NotFound},
	}
	for _, tt := range tests {
		if got := status.Code(ToGRPCError(tt.err)); got != tt.want {
			t.Errorf("ToGRPCError(%v) code = %v, want %v", tt.err, got, tt.want)
		}
	}
	if ToGRPCError(nil) != nil {
		t.Error("nil should map to nil")
	}
}
