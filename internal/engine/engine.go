package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-sambat/internal/calendar"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/i18n"
)

// uidNamespace scopes the deterministic event UUIDs.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(config.UIDNamespace))

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode       string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath  string // JSON export (envelope or bare array)
	BackendURL string // Base URL, e.g. https://host/api
	Schedule   config.NotificationSchedule
}

// Generator loads IPO listings and renders them as an iCalendar feed.
type Generator struct {
	Clock      Clock
	Fetcher    IPOFetcher
	Translator *i18n.Translator

	// Location decides which calendar day an instant falls on. Nil means time.Local.
	Location *time.Location
}

type syncStats struct{ total, skipped, open int }

// RunSync executes the fetch, annotate and render pipeline.
// It returns the ICS data, the annotated IPOs, the number open today, and any error.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) ([]byte, []IPOEntry, int, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}
		return nil, nil, 0, fmt.Errorf("%s: %w", config.ErrIPOLoad, err)
	}
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, nil, 0, err
	}

	ipos, err := DecodeIPOs(reader)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", config.ErrIPOLoad, err)
	}

	ics, entries, open, err := g.generateCalendar(ctx, ipos, cfg.Schedule)
	if err == nil {
		log.Debug(config.MsgSyncDone, config.LogKeyDuration, time.Since(start).Milliseconds())
	}
	return ics, entries, open, err
}

// acquireStream opens the data source selected by the configuration.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.BackendURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, strings.TrimRight(cfg.BackendURL, "/")+config.RouteBackendIPOs)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

func (g *Generator) location() *time.Location {
	if g.Location == nil {
		return time.Local
	}
	return g.Location
}

func (g *Generator) translator() *i18n.Translator {
	if g.Translator == nil {
		g.Translator = i18n.New(config.DefaultLanguage)
	}
	return g.Translator
}

// generateCalendar annotates each IPO and builds one all-day event per subscription window.
func (g *Generator) generateCalendar(ctx context.Context, ipos []IPO, sched config.NotificationSchedule) ([]byte, []IPOEntry, int, error) {
	tr := g.translator()
	loc := g.location()

	morning, err := parseClock(sched.MorningTime)
	if err != nil {
		return nil, nil, 0, err
	}
	evening, err := parseClock(sched.EveningTime)
	if err != nil {
		return nil, nil, 0, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, tr.Msg(config.TKeyCalName))
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	now := g.Clock.Now().In(loc)
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	var stats syncStats
	entries := make([]IPOEntry, 0, len(ipos))

	for _, ipo := range ipos {
		if ctx.Err() != nil {
			return nil, nil, 0, ctx.Err()
		}
		stats.total++

		entry, ok := annotate(ipo, now, loc)
		if !ok {
			stats.skipped++
			slog.Warn(config.MsgSkippedIPO,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyID, ipo.ID,
				config.LogKeyCompany, ipo.Company,
			)
			continue
		}
		entries = append(entries, entry)

		if entry.OpenToday {
			stats.open++
			slog.Info(config.MsgOpenToday,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyCompany, entry.Company,
			)
		}

		event := createEvent(tr, entry, loc, morning, evening)
		event.Props.Set(dtStampProp)
		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		g.logSuccess(stats)
		return []byte(config.StubVCalendar), entries, 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(stats)
	return buf.Bytes(), entries, stats.open, nil
}

func (g *Generator) logSuccess(stats syncStats) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.total),
			slog.Int(config.LogKeySkipped, stats.skipped),
			slog.Int(config.LogKeyOpen, stats.open),
		),
	)
}

// annotate resolves status and BS dates. It rejects records without a usable window.
func annotate(ipo IPO, now time.Time, loc *time.Location) (IPOEntry, bool) {
	if ipo.OpeningDate.IsZero() || ipo.ClosingDate.IsZero() || ipo.ClosingDate.Before(ipo.OpeningDate) {
		return IPOEntry{}, false
	}

	entry := IPOEntry{IPO: ipo, Status: resolveStatus(ipo, now)}
	if entry.Company == "" {
		entry.Company = config.FallbackCompany
	}

	openDay := dateOf(ipo.OpeningDate, loc)
	closeDay := dateOf(ipo.ClosingDate, loc)
	today := dateOf(now, loc)
	entry.OpenToday = !today.Before(openDay) && !today.After(closeDay)

	openBS, errOpen := calendar.ToBS(openDay)
	closeBS, errClose := calendar.ToBS(closeDay)
	if err := errors.Join(errOpen, errClose); err != nil {
		slog.Debug(config.MsgBSUnavailable,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyID, ipo.ID,
			config.LogKeyError, err,
		)
		return entry, true
	}

	entry.OpeningBS = openBS
	entry.ClosingBS = closeBS
	entry.BSKnown = true
	return entry, true
}

// createEvent renders one all-day event spanning the subscription window.
func createEvent(tr *i18n.Translator, e IPOEntry, loc *time.Location, morning, evening *time.Duration) *ical.Event {
	openDay := dateOf(e.OpeningDate, loc)
	closeDay := dateOf(e.ClosingDate, loc)

	key := e.ID
	if key == "" {
		key = e.Company + "|" + e.OpeningDate.UTC().Format(time.RFC3339)
	}
	uid := uuid.NewSHA1(uidNamespace, []byte(key))

	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uid, config.ICalDomain))

	summary := tr.MsgWith(config.TKeyEvtOpening, map[string]any{
		"Company": e.Company,
		"Type":    e.Type,
	})
	event.Props.SetText(config.PropSummary, summary)
	event.Props.SetText(config.PropDescription, tr.MsgWith(config.TKeyEvtDesc, map[string]any{
		"Opening": dayLabel(tr, openDay, e.OpeningBS, e.BSKnown),
		"Closing": dayLabel(tr, closeDay, e.ClosingBS, e.BSKnown),
		"Units":   e.Units,
		"Price":   e.Price,
	}))
	if e.Type != "" {
		event.Props.SetText(config.PropCategories, e.Type)
	}

	dtStart := ical.NewProp(config.PropDTStart)
	dtStart.SetDate(openDay)
	event.Props.Set(dtStart)

	// DTEND is exclusive for all-day events.
	dtEnd := ical.NewProp(config.PropDTEnd)
	dtEnd.SetDate(closeDay.AddDate(0, 0, 1))
	event.Props.Set(dtEnd)

	data := map[string]any{"Company": e.Company}
	if morning != nil {
		addAlarm(event, isoOffset(0, *morning), tr.MsgWith(config.TKeyAlarmMorning, data))
	}
	if evening != nil {
		span := int(math.Round(closeDay.Sub(openDay).Hours() / 24))
		addAlarm(event, isoOffset(span, *evening), tr.MsgWith(config.TKeyAlarmEvening, data))
	}
	return event
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

func dayLabel(tr *i18n.Translator, day time.Time, bs calendar.BSDate, known bool) string {
	if !known {
		return day.Format(calendar.DateLayout)
	}
	return tr.FormatBS(bs) + " (" + day.Format(calendar.DateLayout) + ")"
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// parseClock reads an HH:mm reminder time. Empty disables the reminder.
func parseClock(s string) (*time.Duration, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(config.ClockLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrClockParse, err)
	}
	d := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	return &d, nil
}

// isoOffset renders an RFC 5545 duration such as "PT9H30M" or "P3DT17H".
func isoOffset(days int, at time.Duration) string {
	var b strings.Builder
	b.WriteString(config.ISOPeriodPrefix)
	if days > 0 {
		fmt.Fprintf(&b, "%d%s", days, config.ISODay)
	}
	h := int(at / time.Hour)
	m := int((at % time.Hour) / time.Minute)
	fmt.Fprintf(&b, "%s%d%s", config.ISOTime, h, config.ISOHour)
	if m > 0 {
		fmt.Fprintf(&b, "%d%s", m, config.ISOMinute)
	}
	return b.String()
}
