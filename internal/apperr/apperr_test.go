package apperr

import (
	"errors"
	"fmt"
	"testing"
)

var errThing = New(KindNotFound, "thing_not_found", "Thing not found.")

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"sentinel", errThing, KindNotFound},
		{"wrapped", fmt.Errorf("load: %w", errThing), KindNotFound},
		{"plain", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithMessageKeepsIdentity(t *testing.T) {
	err := errThing.Withf("Thing %d not found.", 7)

	if err.Error() != "Thing 7 not found." {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, errThing) {
		t.Error("specialized error should match its sentinel")
	}
	if errThing.Message != "Thing not found." {
		t.Error("sentinel must not be mutated")
	}

	other := New(KindNotFound, "other", "Other.")
	if errors.Is(err, other) {
		t.Error("errors with different codes must not match")
	}
}

func TestAs(t *testing.T) {
	e, ok := As(fmt.Errorf("ctx: %w", errThing))
	if !ok || e.Code != "thing_not_found" {
		t.Fatalf("As() = %v, %v", e, ok)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("As() on plain error should fail")
	}
}
