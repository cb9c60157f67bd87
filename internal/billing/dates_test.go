package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwissDate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"05.03.2024", "05.03.2024"},
		{"2024-03-05", "05.03.2024"},
		{"2024-03-05T10:30:00", "05.03.2024"},
		{"March 5th", "March 5th"},
		{"", ""},
		{"2024/03/05", "2024/03/05"},
	} {
		require.Equal(t, tc.want, swissDate(tc.in), "input %q", tc.in)
	}
}
