package engine_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/engine"
)

func TestFetchRemoteSettings(t *testing.T) {
	body := `{"success":true,"data":{"lastSyncAt":"2025-01-01T04:15:00Z","morningTime":"10:00","eveningTime":"19:00"}}`

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, backendURL+config.RouteBackendSettings).
		Return(io.NopCloser(strings.NewReader(body)), nil)

	rs, err := engine.FetchRemoteSettings(context.Background(), fetcher, backendURL+"/")
	require.NoError(t, err)
	fetcher.AssertExpectations(t)

	require.NotNil(t, rs.LastSyncAt)
	assert.Equal(t, time.Date(2025, 1, 1, 4, 15, 0, 0, time.UTC), rs.LastSyncAt.UTC())
	assert.Equal(t, config.NotificationSchedule{MorningTime: "10:00", EveningTime: "19:00"}, rs.Schedule())
}

func TestFetchRemoteSettings_NeverSynced(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).
		Return(io.NopCloser(strings.NewReader(`{"success":true,"data":{"lastSyncAt":null}}`)), nil)

	rs, err := engine.FetchRemoteSettings(context.Background(), fetcher, backendURL)
	require.NoError(t, err)
	assert.Nil(t, rs.LastSyncAt)
}

func TestFetchRemoteSettings_Errors(t *testing.T) {
	t.Run("Backend failure", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"success":false,"error":"no settings"}`)), nil)

		_, err := engine.FetchRemoteSettings(context.Background(), fetcher, backendURL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrBackendFailure)
	})

	t.Run("Network", func(t *testing.T) {
		netErr := errors.New("connection refused")
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, netErr)

		_, err := engine.FetchRemoteSettings(context.Background(), fetcher, backendURL)
		assert.ErrorIs(t, err, netErr)
	})

	t.Run("Missing URL", func(t *testing.T) {
		_, err := engine.FetchRemoteSettings(context.Background(), new(MockFetcher), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrWebURLEmpty)
	})
}

func TestFetchIPOTypes(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, backendURL+config.RouteBackendTypes).
		Return(io.NopCloser(strings.NewReader(`{"success":true,"data":["IPO","FPO","Debenture"]}`)), nil)

	types, err := engine.FetchIPOTypes(context.Background(), fetcher, backendURL)
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
	assert.Equal(t, []string{"IPO", "FPO", "Debenture"}, types)
}

func TestFetchIPOTypes_Errors(t *testing.T) {
	t.Run("Backend failure", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"success":false,"error":"boom"}`)), nil)

		_, err := engine.FetchIPOTypes(context.Background(), fetcher, backendURL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrBackendFailure)
	})

	t.Run("Not a list", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"success":true,"data":{"IPO":1}}`)), nil)

		_, err := engine.FetchIPOTypes(context.Background(), fetcher, backendURL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrEnvelopeDecode)
	})

	t.Run("Network", func(t *testing.T) {
		netErr := errors.New("connection refused")
		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, netErr)

		_, err := engine.FetchIPOTypes(context.Background(), fetcher, backendURL)
		assert.ErrorIs(t, err, netErr)
		assert.Contains(t, err.Error(), config.ErrRemoteTypes)
	})
}
