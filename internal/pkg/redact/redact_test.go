package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		in, want string
	}{
		{"admin@example.com", "ad***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"no-at-sign", "***"},
		{"a@b@c", "***"},
		{"user@", "***"},
	}

	for _, tc := range tcs {
		require.Equal(t, tc.want, Email(tc.in), tc.in)
	}
}

func TestBearer(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Bearer(""))
	require.Equal(t, "Bearer [REDACTED_TOKEN]", Bearer("Bearer abc.def"))
	require.Equal(t, "[REDACTED_TOKEN]", Bearer("raw"))
}
