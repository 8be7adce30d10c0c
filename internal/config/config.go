package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string
	RulesPath  string

	LogLevel  string
	LogFormat string

	SafetyFactor          float64
	PeriodDays            int
	IncludeUnregistered   bool
	MatchSuggestThreshold float64

	VendorDirectoryFile string
	MemberDirectoryFile string

	SMSAPIBaseURL   string
	SMSAPIKey       string
	SMSAPISecret    string
	SMSSender       string
	SMSTimeoutMs    int
	DispatchDelayMs int

	EmailProvider string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFromName  string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	NotionToken        string
	NotionRequestDB    string
	NotionRateLimitRPS float64

	ReportListenerProvider    string
	ReportListenerLabel       string
	ReportListenerIntervalSec int
	ReportListenerFetchMax    int
	ReportListenerBatch       int
	ReportListenerAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, eris.Wrap(err, "config: getwd")
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir: getEnv("RAW_MAIL_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		RulesPath:  getEnv("COOPDASH_RULES_PATH", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		SafetyFactor:          getEnvFloat("SAFETY_FACTOR", 1.1),
		PeriodDays:            getEnvInt("PERIOD_DAYS", 1),
		IncludeUnregistered:   getEnvBool("INCLUDE_UNREGISTERED", false),
		MatchSuggestThreshold: getEnvFloat("MATCH_SUGGEST_THRESHOLD", 0.72),

		VendorDirectoryFile: getEnv("VENDOR_DIRECTORY_FILE", "농가관리 목록_20260208 (전체).xlsx"),
		MemberDirectoryFile: getEnv("MEMBER_DIRECTORY_FILE", "회원관리(전체).xlsx"),

		SMSAPIBaseURL:   getEnv("SMS_API_BASE_URL", "https://api.coolsms.co.kr"),
		SMSAPIKey:       getEnv("SMS_API_KEY", ""),
		SMSAPISecret:    getEnv("SMS_API_SECRET", ""),
		SMSSender:       getEnv("SMS_SENDER", ""),
		SMSTimeoutMs:    getEnvInt("SMS_TIMEOUT_MS", 15000),
		DispatchDelayMs: getEnvInt("DISPATCH_DELAY_MS", 300),

		EmailProvider: getEnv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 465),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:  getEnv("SMTP_FROM_NAME", "지족 로컬푸드"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		NotionToken:        getEnv("NOTION_TOKEN", ""),
		NotionRequestDB:    getEnv("NOTION_REQUEST_DB", ""),
		NotionRateLimitRPS: getEnvFloat("NOTION_RATE_LIMIT_RPS", 3),

		ReportListenerProvider:    getEnv("REPORT_LISTENER_PROVIDER", "imap"),
		ReportListenerLabel:       getEnv("REPORT_LISTENER_LABEL", "INBOX"),
		ReportListenerIntervalSec: getEnvInt("REPORT_LISTENER_INTERVAL_SEC", 60),
		ReportListenerFetchMax:    getEnvInt("REPORT_LISTENER_FETCH_MAX", 20),
		ReportListenerBatch:       getEnvInt("REPORT_LISTENER_BATCH", 20),
		ReportListenerAutoExport:  getEnvBool("REPORT_LISTENER_AUTO_EXPORT", true),
	}

	if cfg.SafetyFactor <= 0 {
		return Config{}, eris.Errorf("config: SAFETY_FACTOR must be positive, got %v", cfg.SafetyFactor)
	}
	if cfg.PeriodDays < 1 {
		cfg.PeriodDays = 1
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return eris.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
