package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Sambat/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Sambat"
	AppID             = "com.github.tartampluch.go-sambat"
	CommandName       = "go-sambat"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug    = "debug"
	FlagConfig   = "config"
	FlagLang     = "lang"
	FlagFile     = "file"
	FlagTypes    = "types"
	FlagDescDbg  = "Enable debug logging"
	FlagDescCfg  = "Path to a settings file (default: ./go-sambat.yaml or ~/.config/go-sambat/)"
	FlagDescLang = "Display language (en, ne)"
	FlagDescFile = "Read IPOs from a local JSON export instead of the backend"
	FlagDescType = "List the issue types known to the backend instead of the IPOs"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// CLI Commands
// -----------------------------------------------------------------------------

const (
	CmdRootShort = "Bikram Sambat date conversion and IPO calendar feed"
	CmdRootLong  = "Convert dates between Gregorian (AD) and Bikram Sambat (BS), " +
		"and publish the IPO listing of the admin backend as an iCalendar feed."

	CmdToBSUse     = "tobs YYYY-MM-DD"
	CmdToBSShort   = "Convert a Gregorian date to Bikram Sambat"
	CmdToADUse     = "toad YYYY-MM-DD"
	CmdToADShort   = "Convert a Bikram Sambat date to Gregorian"
	CmdMonthsUse   = "months"
	CmdMonthsShort = "List BS and AD month names"
	CmdMonthUse    = "month YYYY-MM"
	CmdMonthShort  = "Print a BS month with the matching AD dates"
	CmdIPOsUse     = "ipos"
	CmdIPOsShort   = "List IPOs grouped by status with BS dates"
	CmdScheduleUse = "schedule"
	CmdScheduleSh  = "Compare local reminder times with the backend settings"
	CmdServeUse    = "serve"
	CmdServeShort  = "Serve the IPO feed and the conversion API"
	CmdVersionUse  = "version"
	CmdVersionShrt = "Print version information"

	// FormatConversion expects the target date and its label.
	FormatConversion = "%s\t%s\n"
	// FormatFallback expects the localized error and the suggested date.
	FormatFallback = "%s (nearest supported date: %s)"
	// FormatMonthHdr expects the localized month and year.
	FormatMonthHdr = "%s %s\n"
	// FormatGroupHdr expects the localized status and the entry count.
	FormatGroupHdr = "== %s (%d) ==\n"
	// FormatIPOLine expects company, type, opening, closing, units and price.
	FormatIPOLine = "%s (%s)\t%s\t%s\t%s\t%s\n"
	// FormatSchedule expects the source, morning time and evening time.
	FormatSchedule = "%s\t%s\t%s\n"
	// LayoutSyncTime renders the backend's last scrape time.
	LayoutSyncTime = "2006-01-02 15:04"

	FlagDescPort = "Override the HTTP port"
	FlagPort     = "port"
	MarkToday    = "*"
	MarkNone     = "-"
	TabPadding   = 2
)

// -----------------------------------------------------------------------------
// Settings Keys (viper)
// -----------------------------------------------------------------------------

const (
	SettingsName    = "go-sambat"
	SettingsType    = "yaml"
	SettingsDirName = "go-sambat"
	EnvPrefix       = "SAMBAT"

	KeyBackendURL   = "backend_api_url"
	KeySourceMode   = "source_mode"
	KeyLocalPath    = "local_path"
	KeyLanguage     = "language"
	KeyServerPort   = "server_port"
	KeyInterval     = "refresh_interval_min"
	KeyMorningTime  = "notifications.morning_time"
	KeyEveningTime  = "notifications.evening_time"
	KeyRateLimit    = "rate_limit.requests_per_second"
	KeyRateBurst    = "rate_limit.burst"
	KeyMetricsEnabl = "metrics_enabled"
)

// SupportedLanguages defines the list of available display languages (ISO 639-1).
var SupportedLanguages = []string{"en", "ne"}

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	// DefaultBackendURL mirrors the remote-config default of the admin client.
	DefaultBackendURL  = "https://ipo-backend-zzjb.onrender.com/api"
	SourceModeWeb      = "web"
	SourceModeLocal    = "local"
	DefaultPort        = 18080
	DefaultRefreshMin  = 60
	DefaultLanguage    = "en"
	DefaultMorningTime = "10:00"
	DefaultEveningTime = "19:00"
	DefaultRatePerSec  = 20
	DefaultRateBurst   = 40
	UIDNamespace       = "go-sambat.ipo" // Namespace name for deterministic event UUIDs

	// Time-of-day layout used by the notification schedule.
	ClockLayout = "15:04"
)

// IPO status tabs, in display order.
const (
	StatusOpen     = "Open"
	StatusUpcoming = "Upcoming"
	StatusClosed   = "Closed"
)

// StatusOrder is the order in which grouped IPO lists are presented.
var StatusOrder = []string{StatusOpen, StatusUpcoming, StatusClosed}

// -----------------------------------------------------------------------------
// Backend Contract
// -----------------------------------------------------------------------------

const (
	RouteBackendIPOs     = "/admin/ipos"
	RouteBackendTypes    = "/admin/ipos/types"
	RouteBackendSettings = "/admin/settings"
)

// DefaultIPOTypes is used when the backend cannot list its issue types.
var DefaultIPOTypes = []string{"IPO", "FPO", "Right Share", "Debenture", "Mutual Fund"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyDigits        = "digits"           // Ten glyphs, zero first
	TKeyBSMonthPrefix = "month_bs_"        // month_bs_1 .. month_bs_12
	TKeyADMonthPrefix = "month_ad_"        // month_ad_1 .. month_ad_12
	TKeyEvtOpening    = "event_ipo_window" // Requires Company, Type
	TKeyEvtDesc       = "event_ipo_desc"   // Requires Opening, Closing, Units, Price
	TKeyAlarmMorning  = "alarm_morning"    // Requires Company
	TKeyAlarmEvening  = "alarm_evening"    // Requires Company
	TKeyStatusOpen    = "status_open"
	TKeyStatusUpcom   = "status_upcoming"
	TKeyStatusClosed  = "status_closed"
	TKeyBSLabel       = "format_bs_label" // Requires Day, Month, Year
	TKeyCalName       = "calendar_name"
	TKeyHdrBS         = "col_bs"
	TKeyHdrAD         = "col_ad"
	TKeyListEmpty     = "list_empty"
	TKeyUnsupported   = "err_unsupported_range"
	TKeyLastSync      = "last_sync" // Requires Time
	TKeyNeverSynced   = "never_synced"
	TKeyHdrSource     = "col_source"
	TKeyHdrMorning    = "col_morning"
	TKeyHdrEvening    = "col_evening"
	TKeySrcLocal      = "source_local"
	TKeySrcBackend    = "source_backend"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Sambat//IPO Feed//EN"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gosambat"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	DefaultICalRefresh = 1 * time.Hour

	// RFC 5545 duration designators
	ISOPeriodPrefix = "P"
	ISOTime         = "T"
	ISODay          = "D"
	ISOHour         = "H"
	ISOMinute       = "M"

	// FormatUID expects the UUID and the domain.
	FormatUID = "%s@%s"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	RetryAfterRateLimit = "1"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	RouteFeed      = "/ipos.ics"
	RouteConvertAD = "/api/convert/ad/{date}"
	RouteConvertBS = "/api/convert/bs/{date}"
	RouteMonths    = "/api/months"
	RouteMetrics   = "/metrics"
	RouteVarDate   = "date"
	QueryLang      = "lang"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

const (
	MetricsNamespace     = "sambat"
	MetricConversions    = "conversions_total"
	MetricFeedRequests   = "feed_requests_total"
	MetricRequestSeconds = "http_request_duration_seconds"
	MetricLabelDirection = "direction"
	MetricLabelResult    = "result"
	MetricLabelStatus    = "status"
	MetricLabelRoute     = "route"

	DirectionToBS = "ad_to_bs"
	DirectionToAD = "bs_to_ad"
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultRange   = "unsupported_range"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty  = "configuration error: local path is empty"
	ErrWebURLEmpty     = "configuration error: backend URL is empty"
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrModeUnsupport   = "configuration error: unsupported source mode"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrEnvelopeDecode  = "failed to decode backend response"
	ErrBackendFailure  = "backend reported failure"
	ErrIPOLoad         = "failed to load IPO records"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrClockParse      = "unable to parse time of day"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrSettingsRead    = "failed to read settings file"
	ErrSettingsDecode  = "failed to decode settings"
	ErrSettingsInvalid = "invalid settings"
	ErrConvert         = "conversion failed"
	ErrArgDate         = "expected a date as YYYY-MM-DD"
	ErrArgMonth        = "expected a BS month as YYYY-MM"
	ErrRemoteSettings  = "failed to read backend settings"
	ErrRemoteTypes     = "failed to read issue types"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgRateLimited  = "Too many requests"
	HTTPMsgNotFound     = "Not Found"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackCompany = "Unknown"

	MsgSyncStarted    = "Synchronization started"
	MsgSyncFailed     = "Synchronization failed"
	MsgSyncDone       = "Synchronization finished"
	MsgWorkerStart    = "Background worker started"
	MsgWorkerStop     = "Worker stopping due to context cancellation"
	MsgUpdateSync     = "Updating sync interval"
	MsgAppStop        = "Application stopped gracefully"
	MsgSkippedIPO     = "Skipping IPO with unusable dates"
	MsgBSUnavailable  = "BS date unavailable, label omitted"
	MsgGenSuccess     = "Calendar generation successful"
	MsgAppStarting    = "Starting application"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Feed cache updated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgOpenToday      = "IPO open today"
	MsgSettingsLoaded = "Settings loaded"
	MsgSettingsChange = "Settings file changed"
	MsgNoSettingsFile = "No settings file found, using defaults"
	MsgCommandStart   = "Running command"
	MsgScheduleDrift  = "Local reminder times differ from the backend"
	MsgRemoteSkipped  = "Backend settings unavailable, sync time omitted"
	MsgTypesDefault   = "Issue types unavailable, using defaults"
	MsgBackendStats   = "Backend sync statistics"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyOld       = "old"
	LogKeyNew       = "new"
	LogKeyTotal     = "total_ipos"
	LogKeyOpen      = "open_today"
	LogKeySkipped   = "skipped"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyStats     = "stats"
	LogKeyAdded     = "added"
	LogKeyUpdated   = "updated"
	LogKeyCompany   = "company"
	LogKeyID        = "id"
	LogKeyDuration  = "duration_ms"
	LogKeyCommand   = "command"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyBuilt   = "built"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine   = "engine"
	CompServer   = "server"
	CompFetcher  = "fetcher"
	CompWorker   = "worker"
	CompMain     = "main"
	CompI18n     = "i18n"
	CompSettings = "settings"
	CompCLI      = "cli"
)
