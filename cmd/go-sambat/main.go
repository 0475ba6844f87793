package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/i18n"
)

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle and exit codes.
// Returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain() int {
	// Root context cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &cliApp{}
	defer a.close()

	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

// cliApp carries the state shared by all subcommands.
type cliApp struct {
	debug      bool
	configPath string
	lang       string

	loader    *config.Loader
	settings  *config.Settings
	tr        *i18n.Translator
	logCloser io.Closer
}

// newRootCommand wires the persistent flags and every subcommand.
func newRootCommand(a *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:           config.CommandName,
		Short:         config.CmdRootShort,
		Long:          config.CmdRootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDbg)
	root.PersistentFlags().StringVar(&a.configPath, config.FlagConfig, "", config.FlagDescCfg)
	root.PersistentFlags().StringVar(&a.lang, config.FlagLang, "", config.FlagDescLang)

	root.AddCommand(
		newToBSCommand(a),
		newToADCommand(a),
		newMonthsCommand(a),
		newMonthCommand(a),
		newIPOsCommand(a),
		newScheduleCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return root
}

// init configures logging, loads settings and picks the display language.
func (a *cliApp) init(cmd *cobra.Command) error {
	// Query commands print results on stdout, so their logs go to stderr.
	logOut := cmd.ErrOrStderr()
	if cmd.Name() == config.CmdServeUse {
		logOut = cmd.OutOrStdout()
	}
	a.logCloser = setupLogging(a.debug, logOut)

	a.loader = config.NewLoader(a.configPath)
	if a.lang != "" {
		a.loader.Override(config.KeyLanguage, a.lang)
	}
	settings, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.settings = settings
	a.tr = i18n.New(settings.Language)

	slog.Debug(config.MsgCommandStart,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyCommand, cmd.Name(),
		config.LogKeyLang, settings.Language,
	)
	return nil
}

func (a *cliApp) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// printVersion outputs the build information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, config.MsgVersionOutput,
		config.CommandName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyBuilt, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger to write to out and a log file.
func setupLogging(debugMode bool, out io.Writer) io.Closer {
	writers := []io.Writer{out}
	var logFile *os.File

	// Attempt to set up a file writer in the user's cache directory.
	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts)))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
