package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	s := String()
	require.True(t, strings.HasPrefix(s, "sssg v1.2.3"))
	require.Contains(t, s, GitCommit)
}
