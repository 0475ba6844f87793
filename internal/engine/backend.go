package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tartampluch/go-sambat/internal/config"
)

// RemoteSettings is the payload of GET /admin/settings.
type RemoteSettings struct {
	LastSyncAt  *time.Time `json:"lastSyncAt"`
	MorningTime string     `json:"morningTime"`
	EveningTime string     `json:"eveningTime"`
}

// Schedule converts the backend reminder times to the local schedule type.
func (r RemoteSettings) Schedule() config.NotificationSchedule {
	return config.NotificationSchedule{
		MorningTime: r.MorningTime,
		EveningTime: r.EveningTime,
	}
}

// FetchRemoteSettings reads the notification schedule and last scrape time from the backend.
func FetchRemoteSettings(ctx context.Context, f IPOFetcher, baseURL string) (RemoteSettings, error) {
	if baseURL == "" {
		return RemoteSettings{}, errors.New(config.ErrWebURLEmpty)
	}
	if f == nil {
		return RemoteSettings{}, errors.New(config.ErrFetcherMissing)
	}

	body, err := f.Fetch(ctx, strings.TrimRight(baseURL, "/")+config.RouteBackendSettings)
	if err != nil {
		return RemoteSettings{}, fmt.Errorf("%s: %w", config.ErrRemoteSettings, err)
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return RemoteSettings{}, fmt.Errorf("%s: %w", config.ErrRemoteSettings, err)
	}

	data, err := unwrap(raw)
	if err != nil {
		return RemoteSettings{}, err
	}

	var rs RemoteSettings
	if isEmptyJSON(data) {
		return rs, nil
	}
	if err := json.Unmarshal(data, &rs); err != nil {
		return RemoteSettings{}, fmt.Errorf("%s: %w", config.ErrEnvelopeDecode, err)
	}
	return rs, nil
}

// FetchIPOTypes lists the issue types the backend knows about (IPO, FPO, ...).
func FetchIPOTypes(ctx context.Context, f IPOFetcher, baseURL string) ([]string, error) {
	if baseURL == "" {
		return nil, errors.New(config.ErrWebURLEmpty)
	}
	if f == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}

	body, err := f.Fetch(ctx, strings.TrimRight(baseURL, "/")+config.RouteBackendTypes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRemoteTypes, err)
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRemoteTypes, err)
	}

	data, err := unwrap(raw)
	if err != nil {
		return nil, err
	}

	var types []string
	if isEmptyJSON(data) {
		return types, nil
	}
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrEnvelopeDecode, err)
	}
	return types, nil
}
