package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil_classification", errors.New("plain"), Internal},
		{"direct", New(NotFound, "missing"), NotFound},
		{"wrapped_in_fmt", fmt.Errorf("outer: %w", New(Forbidden, "nope")), Forbidden},
		{"wrap_keeps_outer_kind", Wrap(Internal, "ctx", New(Conflict, "dup")), Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("row not found")
	err := Wrap(NotFound, "load user", inner)

	if !errors.Is(err, inner) {
		t.Fatal("wrapped cause lost")
	}
	if err.Error() != "load user: row not found" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !IsKind(err, NotFound) {
		t.Fatal("IsKind(NotFound) = false")
	}
	if IsKind(nil, NotFound) {
		t.Fatal("IsKind on nil error should be false")
	}
}

func TestKindString(t *testing.T) {
	if Internal.String() != "internal" || Validation.String() != "validation" {
		t.Fatalf("unexpected kind names: %s %s", Internal, Validation)
	}
}
