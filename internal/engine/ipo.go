package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/tartampluch/go-sambat/internal/calendar"
	"github.com/tartampluch/go-sambat/internal/config"
)

// Envelope is the response wrapper used by the IPO backend.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Stats   *SyncStats      `json:"stats,omitempty"`
}

// SyncStats is attached by the backend to responses that follow a scrape.
type SyncStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// IPO is one listing as served by GET /admin/ipos.
// Units and Price are display strings ("1,00,000", "Rs. 100").
type IPO struct {
	ID          string    `json:"_id"`
	Company     string    `json:"company"`
	Type        string    `json:"type"`
	Units       string    `json:"units"`
	Price       string    `json:"price"`
	OpeningDate time.Time `json:"openingDate"`
	ClosingDate time.Time `json:"closingDate"`
	Status      string    `json:"status,omitempty"`
}

// IPOEntry is an IPO annotated for display: resolved status and BS dates.
type IPOEntry struct {
	IPO

	// Status is the backend status when recognised, otherwise derived from the dates.
	Status string

	// OpeningBS and ClosingBS are valid only when BSKnown is true.
	OpeningBS calendar.BSDate
	ClosingBS calendar.BSDate
	BSKnown   bool

	// OpenToday is true when today falls inside the subscription window.
	OpenToday bool
}

// StatusGroup is one tab of the grouped IPO list.
type StatusGroup struct {
	Status  string
	Entries []IPOEntry
}

// DecodeIPOs reads either a backend envelope or a bare JSON array of IPOs.
func DecodeIPOs(r io.Reader) ([]IPO, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrEnvelopeDecode, err)
	}

	data := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(data, []byte("[")) {
		if data, err = unwrap(data); err != nil {
			return nil, err
		}
	}

	var ipos []IPO
	if isEmptyJSON(data) {
		return ipos, nil
	}
	if err := json.Unmarshal(data, &ipos); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrEnvelopeDecode, err)
	}
	return ipos, nil
}

// unwrap returns the data member of a successful envelope.
func unwrap(raw []byte) (json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrEnvelopeDecode, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%s: %s", config.ErrBackendFailure, env.Error)
	}
	if env.Stats != nil {
		slog.Info(config.MsgBackendStats,
			config.LogKeyComponent, config.CompEngine,
			slog.Group(config.LogKeyStats,
				slog.Int(config.LogKeyAdded, env.Stats.Added),
				slog.Int(config.LogKeyUpdated, env.Stats.Updated),
			),
		)
	}
	return env.Data, nil
}

func isEmptyJSON(data []byte) bool {
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// resolveStatus keeps a known backend status and derives one otherwise.
func resolveStatus(ipo IPO, now time.Time) string {
	switch ipo.Status {
	case config.StatusOpen, config.StatusUpcoming, config.StatusClosed:
		return ipo.Status
	}
	switch {
	case now.Before(ipo.OpeningDate):
		return config.StatusUpcoming
	case now.After(ipo.ClosingDate):
		return config.StatusClosed
	}
	return config.StatusOpen
}

// GroupByStatus splits entries into tabs ordered Open, Upcoming, Closed,
// then any other status alphabetically. Entries are sorted by opening date.
func GroupByStatus(entries []IPOEntry) []StatusGroup {
	byStatus := make(map[string][]IPOEntry)
	for _, e := range entries {
		byStatus[e.Status] = append(byStatus[e.Status], e)
	}

	var extra []string
	known := make(map[string]bool, len(config.StatusOrder))
	for _, s := range config.StatusOrder {
		known[s] = true
	}
	for s := range byStatus {
		if !known[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)

	var groups []StatusGroup
	for _, s := range append(append([]string{}, config.StatusOrder...), extra...) {
		list := byStatus[s]
		if len(list) == 0 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].OpeningDate.Before(list[j].OpeningDate)
		})
		groups = append(groups, StatusGroup{Status: s, Entries: list})
	}
	return groups
}
