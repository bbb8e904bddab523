package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchSummary(t *testing.T) {
	n, err := New("en")
	require.NoError(t, err)
	require.Len(t, n.Languages(), 2)

	require.Equal(t, "1 item updated", n.BatchSummary(1, 0))
	require.Equal(t, "12 items updated", n.BatchSummary(12, 0))
	require.Equal(t, "4 updated, 1 failed", n.BatchSummary(4, 1))
	require.Equal(t, "All 3 updates failed", n.BatchSummary(0, 3))
	require.Equal(t, "Nothing to update", n.BatchSummary(0, 0))
}

func TestBatchSummaryLocalized(t *testing.T) {
	n, err := New("en")
	require.NoError(t, err)

	require.Equal(t, "4 actualizados, 1 con error", n.BatchSummary(4, 1, "es-MX"))
	require.Equal(t, "4 updated, 1 failed", n.BatchSummary(4, 1, "de"))
	require.Equal(t, "La actualización falló", n.BatchSummary(0, 1, "es"))
}
