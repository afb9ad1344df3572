package validator

import (
	"errors"
	"testing"
)

func TestValidator(t *testing.T) {
	v := New()
	v.Check(true, "name", "must be provided")
	if !v.Valid() || v.Err() != nil {
		t.Fatal("expected valid")
	}

	v.Check(false, "salary", "must be greater than zero")
	v.Check(false, "salary", "second message is ignored")
	v.Check(false, "name", "must be provided")

	if v.Valid() {
		t.Fatal("expected invalid")
	}
	if v.Errors["salary"] != "must be greater than zero" {
		t.Fatalf("first error should win, got %q", v.Errors["salary"])
	}

	var verr *Error
	if !errors.As(v.Err(), &verr) {
		t.Fatalf("expected *Error, got %T", v.Err())
	}

	want := "failed validation: name: must be provided; salary: must be greater than zero"
	if verr.Error() != want {
		t.Fatalf("got %q, want %q", verr.Error(), want)
	}
}
