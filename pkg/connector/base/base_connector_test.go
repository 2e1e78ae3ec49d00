package base

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/connector/core"
	adrerrors "github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseConnector_Close(t *testing.T) {
	bc := NewBaseConnector("dv360", core.ConnectorTypeReader, nil)
	assert.Equal(t, "dv360", bc.Name())
	assert.Equal(t, core.ConnectorTypeReader, bc.Type())
	assert.NotNil(t, bc.GetConfig())

	var order []int
	bc.OnClose(func(context.Context) error { order = append(order, 1); return nil })
	bc.OnClose(func(context.Context) error { order = append(order, 2); return errors.New("boom") })

	err := bc.Close(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []int{2, 1}, order)

	require.NoError(t, bc.Close(context.Background()))
	assert.Equal(t, []int{2, 1}, order)
}

func TestBaseConnector_ExecuteWithRetry(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Reliability.RetryAttempts = 2
	bc := NewBaseConnector("facebook", core.ConnectorTypeReader, cfg)
	bc.SetHTTPRetryPolicy(bc.HTTPRetryPolicy().WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))

	calls := 0
	err := bc.ExecuteWithRetry(context.Background(), func() error {
		calls++
		return adrerrors.New(adrerrors.ErrorTypeRateLimit, "slow down")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = bc.ExecuteWithRetry(context.Background(), func() error {
		calls++
		return adrerrors.New(adrerrors.ErrorTypeAuthentication, "expired token")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
