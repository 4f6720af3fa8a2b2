package composables

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestUseLogger_Fallback(t *testing.T) {
	t.Parallel()
	require.NotNil(t, UseLogger(context.Background()))

	entry := logrus.NewEntry(logrus.New()).WithField("request-id", "abc")
	ctx := WithLogger(context.Background(), entry)
	require.Same(t, entry, UseLogger(ctx))
}

func TestUsePool_Missing(t *testing.T) {
	t.Parallel()
	_, err := UsePool(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	_, err = UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)
}

func TestParams(t *testing.T) {
	t.Parallel()
	_, ok := UseRequestID(context.Background())
	require.False(t, ok)

	ctx := WithParams(context.Background(), &Params{IP: "10.0.0.1", RequestID: "req-1"})
	id, ok := UseRequestID(ctx)
	require.True(t, ok)
	require.Equal(t, "req-1", id)
	ip, ok := UseIP(ctx)
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", ip)
}

func TestGetLastQueryParam(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/x?type=inbound&type=outbound", nil)
	require.Equal(t, "outbound", GetLastQueryParam(r, "type"))
	require.Empty(t, GetLastQueryParam(r, "status"))
}
