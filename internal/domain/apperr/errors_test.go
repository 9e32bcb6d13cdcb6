package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestHelpersWrapSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "validation", err: Validation("content is empty"), want: ErrValidation},
		{name: "not found", err: NotFound("user %d", 7), want: ErrNotFound},
		{name: "not authorized", err: NotAuthorized("not a participant"), want: ErrNotAuthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("post message: %w", tc.err)
			if !errors.Is(wrapped, tc.want) {
				t.Fatalf("expected %v to wrap %v", wrapped, tc.want)
			}
		})
	}
}

func TestNotFoundAndNotAuthorizedAreDistinct(t *testing.T) {
	if errors.Is(NotFound("match"), ErrNotAuthorized) {
		t.Fatalf("not found must not match not authorized")
	}
	if errors.Is(NotAuthorized("match"), ErrNotFound) {
		t.Fatalf("not authorized must not match not found")
	}
}
