package errors

import (
	e "errors"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	err := e.New("some error")
	if IsNotFound(err) {
		t.Log("custom error type NotFound is wrongly recognized")
		t.Fail()
	}

	err = asNotFound(err)
	if !IsNotFound(err) {
		t.Log("custom error type NotFound is not recognized")
		t.Fail()
	}
}

func TestWrapKeepsKind(t *testing.T) {
	err := Wrap(NewUnsupported("type %q", "image/png"), "open %q", "a.png")
	if !IsUnsupported(err) {
		t.Errorf("wrapped error lost its kind: %v", err)
	}
	if IsValidationError(err) || IsNotFound(err) {
		t.Errorf("wrapped error has the wrong kind: %v", err)
	}

	want := `open "a.png": Unsupported: type "image/png"`
	if err.Error() != want {
		t.Errorf("unexpected message %q", err.Error())
	}

	if Wrap(nil, "nothing") != nil {
		t.Errorf("wrapping nil should return nil")
	}
}

func TestIsValidationError(t *testing.T) {
	err := NewValidationError("invalid width %v", -1)
	if !IsValidationError(err) {
		t.Errorf("validation error not recognized")
	}
	if err.Error() != "invalid width -1" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
