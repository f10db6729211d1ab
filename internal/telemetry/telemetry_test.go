package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := NewTestAPI()
	scoped := NewScopedAPI("nstc", inner)

	scoped.ReportBroken("client.search", "boom")
	scoped.ReportWarning("client.search-row", 3)
	scoped.ReportCount("client.search", 5)

	broken := inner.Reports("broken", "")
	require.Len(t, broken, 1)
	require.Equal(t, "nstc: client.search", broken[0].Id)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	warnings := inner.Reports("warning", "client.search-row")
	require.Len(t, warnings, 1)
	require.Equal(t, []any{3}, warnings[0].Params)

	counts := inner.Reports("count", "client.search")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(5)}, counts[0].Params)
}
