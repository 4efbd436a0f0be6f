package brainygraph

import (
	"errors"
	"testing"
)

func TestError_RetryableOnlyForTransient(t *testing.T) {
	cases := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{KindValidation, false},
		{KindNotFound, false},
		{KindConflict, false},
		{KindTransient, true},
		{KindCorruption, false},
		{KindResource, false},
	}
	for _, c := range cases {
		err := newError(c.kind, "op", "message", nil)
		if got := err.Retryable(); got != c.retryable {
			t.Errorf("Retryable() for kind %v = %v, want %v", c.kind, got, c.retryable)
		}
	}
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("underlying failure")
	err := newError(KindTransient, "op", "message", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIsNotFound(t *testing.T) {
	err := newError(KindNotFound, "GetNoun", "noun not found", nil)
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to report true for a KindNotFound error")
	}
	if IsNotFound(newError(KindValidation, "AddNoun", "bad input", nil)) {
		t.Error("expected IsNotFound to report false for a non-not-found error")
	}
}

func TestIsValidation(t *testing.T) {
	err := newError(KindValidation, "AddNoun", "dimension mismatch", ErrDimensionMismatch)
	if !IsValidation(err) {
		t.Error("expected IsValidation to report true for a KindValidation error")
	}
	if IsValidation(errors.New("plain error")) {
		t.Error("expected IsValidation to report false for a plain error")
	}
}
