package sim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  ErrorKind
		cause error
	}{
		{"config", configErr("register", ErrDuplicate, "%q", "x"), KindConfig, ErrDuplicate},
		{"invariant", invariantErr("move", ErrDwellTime, "%d", 1), KindInvariant, ErrDwellTime},
		{"unreachable", unreachableErr("path", "a to b"), KindUnreachable, ErrNoPath},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("tick 3: %w", tc.err)
			assert.ErrorIs(t, wrapped, tc.cause)
			var e *Error
			assert.True(t, errors.As(wrapped, &e))
			assert.Equal(t, tc.kind, e.Kind)
			assert.Equal(t, tc.kind == KindConfig, IsConfig(wrapped))
			assert.Equal(t, tc.kind == KindInvariant, IsInvariant(wrapped))
			assert.Equal(t, tc.kind == KindUnreachable, IsUnreachable(wrapped))
		})
	}
	assert.Equal(t, `register: already registered: "x"`, tests[0].err.Error())
	assert.False(t, IsConfig(errors.New("plain")))
	assert.Equal(t, "ErrorKind(7)", ErrorKind(7).String())
}
