package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sambat/internal/calendar"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/engine"
)

// newToBSCommand converts a Gregorian date to BS.
func newToBSCommand(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdToBSUse,
		Short: config.CmdToBSShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ad, err := calendar.ParseAD(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrArgDate, err)
			}

			bs, err := calendar.ToBS(ad)
			if err != nil {
				return a.conversionError(err, calendar.FallbackFor(ad))
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), config.FormatConversion, bs, a.tr.FormatBS(bs))
			return err
		},
	}
}

// newToADCommand converts a BS date to Gregorian.
func newToADCommand(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdToADUse,
		Short: config.CmdToADShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := calendar.ParseBS(args[0])
			if err != nil {
				return a.conversionError(err, calendar.Fallback(bs.Year))
			}

			ad, err := calendar.ToAD(bs)
			if err != nil {
				return a.conversionError(err, calendar.Fallback(bs.Year))
			}

			label := a.tr.Digits(ad.Day()) + " " + a.tr.ADMonth(int(ad.Month())) + " " + a.tr.Digits(ad.Year())
			_, err = fmt.Fprintf(cmd.OutOrStdout(), config.FormatConversion, ad.Format(calendar.DateLayout), label)
			return err
		},
	}
}

// conversionError adds the nearest supported date to range errors.
func (a *cliApp) conversionError(err error, fb calendar.BSDate) error {
	if errors.Is(err, calendar.ErrUnsupportedRange) {
		return fmt.Errorf(config.FormatFallback+": %w", a.tr.Msg(config.TKeyUnsupported), fb, err)
	}
	return fmt.Errorf("%s: %w", config.ErrConvert, err)
}

// newMonthsCommand prints both month sequences side by side.
func newMonthsCommand(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdMonthsUse,
		Short: config.CmdMonthsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "#\t%s\t%s\n", a.tr.Msg(config.TKeyHdrBS), a.tr.Msg(config.TKeyHdrAD))
			for m := 1; m <= 12; m++ {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.tr.Digits(m), a.tr.BSMonth(m), a.tr.ADMonth(m))
			}
			return tw.Flush()
		},
	}
}

// newMonthCommand prints every day of a BS month with its Gregorian date.
func newMonthCommand(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdMonthUse,
		Short: config.CmdMonthShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args[0])
			if err != nil {
				return err
			}

			days, err := calendar.MonthGrid(year, month)
			if err != nil {
				return a.conversionError(err, calendar.Fallback(year))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, config.FormatMonthHdr, a.tr.BSMonth(month), a.tr.Digits(year))

			tw := newTable(out)
			fmt.Fprintf(tw, "%s\t%s\n", a.tr.Msg(config.TKeyHdrBS), a.tr.Msg(config.TKeyHdrAD))
			for i, day := range days {
				fmt.Fprintf(tw, "%s\t%s\n", a.tr.Digits(i+1), day.Format(calendar.DateLayout))
			}
			return tw.Flush()
		},
	}
}

func parseYearMonth(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%s: %q", config.ErrArgMonth, s)
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	if err := errors.Join(errY, errM); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", config.ErrArgMonth, err)
	}
	return year, month, nil
}

// newIPOsCommand fetches the listing and prints it grouped by status.
func newIPOsCommand(a *cliApp) *cobra.Command {
	var (
		file      string
		listTypes bool
	)

	cmd := &cobra.Command{
		Use:   config.CmdIPOsUse,
		Short: config.CmdIPOsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listTypes {
				return a.printTypes(cmd.Context(), cmd.OutOrStdout())
			}

			cfg := a.syncConfig()
			if file != "" {
				cfg.Mode = config.SourceModeLocal
				cfg.LocalPath = file
			}

			gen := a.newGenerator()
			_, entries, _, err := gen.RunSync(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := a.printGroups(out, engine.GroupByStatus(entries)); err != nil {
				return err
			}
			if cfg.Mode != config.SourceModeWeb {
				return nil
			}
			return a.printLastSync(cmd.Context(), out, gen.Fetcher, cfg.BackendURL)
		},
	}
	cmd.Flags().StringVar(&file, config.FlagFile, "", config.FlagDescFile)
	cmd.Flags().BoolVar(&listTypes, config.FlagTypes, false, config.FlagDescType)
	cmd.MarkFlagsMutuallyExclusive(config.FlagFile, config.FlagTypes)
	return cmd
}

func (a *cliApp) printGroups(w io.Writer, groups []engine.StatusGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, a.tr.Msg(config.TKeyListEmpty))
		return err
	}

	for _, g := range groups {
		fmt.Fprintf(w, config.FormatGroupHdr, a.tr.Status(g.Status), len(g.Entries))
		tw := newTable(w)
		for _, e := range g.Entries {
			company := e.Company
			if e.OpenToday {
				company = config.MarkToday + company
			}
			fmt.Fprintf(tw, config.FormatIPOLine,
				company, e.Type,
				a.dayLabel(e, true), a.dayLabel(e, false),
				e.Units, e.Price,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// printTypes lists the backend's issue types, or the built-in ones when it is unreachable.
func (a *cliApp) printTypes(ctx context.Context, w io.Writer) error {
	types, err := engine.FetchIPOTypes(ctx, a.newGenerator().Fetcher, a.current().BackendURL)
	if err != nil || len(types) == 0 {
		slog.Warn(config.MsgTypesDefault,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyError, err,
		)
		types = config.DefaultIPOTypes
	}
	for _, t := range types {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

// printLastSync appends the backend's last scrape time. A missing settings
// endpoint only drops the footer.
func (a *cliApp) printLastSync(ctx context.Context, w io.Writer, f engine.IPOFetcher, baseURL string) error {
	rs, err := engine.FetchRemoteSettings(ctx, f, baseURL)
	if err != nil {
		slog.Warn(config.MsgRemoteSkipped,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyError, err,
		)
		return nil
	}
	_, err = fmt.Fprintln(w, a.syncLabel(rs))
	return err
}

func (a *cliApp) syncLabel(rs engine.RemoteSettings) string {
	if rs.LastSyncAt == nil {
		return a.tr.Msg(config.TKeyNeverSynced)
	}
	return a.tr.MsgWith(config.TKeyLastSync, map[string]any{
		"Time": rs.LastSyncAt.Local().Format(config.LayoutSyncTime),
	})
}

// newScheduleCommand shows the local reminder times next to the backend ones.
func newScheduleCommand(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdScheduleUse,
		Short: config.CmdScheduleSh,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.current()
			rs, err := engine.FetchRemoteSettings(cmd.Context(), a.newGenerator().Fetcher, s.BackendURL)
			if err != nil {
				return err
			}

			local, remote := s.Notifications, rs.Schedule()
			if local != remote {
				slog.Warn(config.MsgScheduleDrift,
					config.LogKeyComponent, config.CompCLI,
					config.LogKeyOld, remote.MorningTime+" "+remote.EveningTime,
					config.LogKeyNew, local.MorningTime+" "+local.EveningTime,
				)
			}

			out := cmd.OutOrStdout()
			tw := newTable(out)
			fmt.Fprintf(tw, config.FormatSchedule,
				a.tr.Msg(config.TKeyHdrSource), a.tr.Msg(config.TKeyHdrMorning), a.tr.Msg(config.TKeyHdrEvening))
			fmt.Fprintf(tw, config.FormatSchedule,
				a.tr.Msg(config.TKeySrcLocal), orNone(local.MorningTime), orNone(local.EveningTime))
			fmt.Fprintf(tw, config.FormatSchedule,
				a.tr.Msg(config.TKeySrcBackend), orNone(remote.MorningTime), orNone(remote.EveningTime))
			if err := tw.Flush(); err != nil {
				return err
			}

			_, err = fmt.Fprintln(out, a.syncLabel(rs))
			return err
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return config.MarkNone
	}
	return s
}

// dayLabel prefers the BS date and falls back to the Gregorian one.
func (a *cliApp) dayLabel(e engine.IPOEntry, opening bool) string {
	if opening {
		if e.BSKnown {
			return a.tr.FormatBS(e.OpeningBS)
		}
		return e.OpeningDate.Format(calendar.DateLayout)
	}
	if e.BSKnown {
		return a.tr.FormatBS(e.ClosingBS)
	}
	return e.ClosingDate.Format(calendar.DateLayout)
}

// newVersionCommand prints build information without loading settings.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersionUse,
		Short: config.CmdVersionShrt,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, config.TabPadding, ' ', 0)
}
