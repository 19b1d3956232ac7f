package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Event    EventConfig    `mapstructure:"event"`
	Server   ServerConfig   `mapstructure:"server"`
	Sheet    SheetConfig    `mapstructure:"sheet"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
}

// EventConfig describes the event on the invite. It is read once at startup
// and never changes afterwards.
type EventConfig struct {
	Name           string `mapstructure:"name"`
	Date           string `mapstructure:"date"`
	Time           string `mapstructure:"time"`
	Venue          string `mapstructure:"venue"`
	Address        string `mapstructure:"address"`
	MapsLink       string `mapstructure:"maps_link"`
	Description    string `mapstructure:"description"`
	OrganizerPhone string `mapstructure:"organizer_phone"` // digits only, no + or spaces
	OrganizerName  string `mapstructure:"organizer_name"`
	Timezone       string `mapstructure:"timezone"`
}

// Host returns the name shown in the page footer
func (e EventConfig) Host() string {
	if strings.TrimSpace(e.OrganizerName) == "" {
		return "the Host"
	}
	return e.OrganizerName
}

// Location resolves the timezone used for submission timestamps
func (e EventConfig) Location() *time.Location {
	if e.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Sheet modes
const (
	SheetModeWebhook = "webhook"
	SheetModeSheets  = "sheets"
	SheetModeNone    = "none"
)

type SheetConfig struct {
	Mode            string        `mapstructure:"mode"`
	WebhookURL      string        `mapstructure:"webhook_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	SheetName       string        `mapstructure:"sheet_name"`
}

// WorkflowConfig holds the feedback delays of a submission
type WorkflowConfig struct {
	OpenDelay time.Duration `mapstructure:"open_delay"`
	HideDelay time.Duration `mapstructure:"hide_delay"`
	Retention time.Duration `mapstructure:"retention"`
}

type WhatsAppConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DataDir string `mapstructure:"data_dir"`
}

const defaultWebhookURL = "https://script.google.com/macros/s/AKfycbz-kh3QoRHx3CnguCi4K3JkSKUh46xphAu1BkD2WR7-Kd7uGnmS8sSIGckGXx76l3mAwA/exec"

func setDefaults(v *viper.Viper) {
	v.SetDefault("event.name", "CNY Dinner")
	v.SetDefault("event.date", "Thursday, 20 Feb 2026")
	v.SetDefault("event.time", "8pm - 11pm")
	v.SetDefault("event.venue", "Restaurant Ka Hoe, Jalan Maju")
	v.SetDefault("event.address", "Taman Maju Jaya, 80400 Johor Bahru")
	v.SetDefault("event.maps_link", "https://maps.app.goo.gl/9xQRZ8hqYDL3Ew9G6")
	v.SetDefault("event.description", "Let's celebrate Chinese New Year together with good food and friends! 🧨🧧")
	v.SetDefault("event.organizer_phone", "60175678327")
	v.SetDefault("event.organizer_name", "Alex")
	v.SetDefault("event.timezone", "Asia/Kuala_Lumpur")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("sheet.mode", SheetModeWebhook)
	v.SetDefault("sheet.webhook_url", defaultWebhookURL)
	v.SetDefault("sheet.timeout", 10*time.Second)
	v.SetDefault("sheet.credentials_file", "")
	v.SetDefault("sheet.spreadsheet_id", "")
	v.SetDefault("sheet.sheet_name", "Sheet1")

	v.SetDefault("workflow.open_delay", 500*time.Millisecond)
	v.SetDefault("workflow.hide_delay", 3000*time.Millisecond)
	v.SetDefault("workflow.retention", time.Minute)

	v.SetDefault("whatsapp.enabled", false)
	v.SetDefault("whatsapp.data_dir", "data")
}

// LoadConfig loads configuration from defaults, an optional config file and
// RSVP_* environment variables. path may be empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RSVP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return ParseConfig(v)
}

// ParseConfig decodes and checks a loaded viper instance
func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	c.Event.OrganizerPhone = digitsOnly(c.Event.OrganizerPhone)
	if c.Event.OrganizerPhone == "" {
		return nil, errors.New("event.organizer_phone must contain digits")
	}

	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("unknown server.mode %q", c.Server.Mode)
	}

	c.Sheet.Mode = strings.ToLower(strings.TrimSpace(c.Sheet.Mode))
	switch c.Sheet.Mode {
	case SheetModeWebhook:
		if strings.TrimSpace(c.Sheet.WebhookURL) == "" {
			return nil, errors.New("sheet.webhook_url is required in webhook mode")
		}
	case SheetModeSheets:
		if c.Sheet.SpreadsheetID == "" || c.Sheet.CredentialsFile == "" {
			return nil, errors.New("sheet.spreadsheet_id and sheet.credentials_file are required in sheets mode")
		}
	case SheetModeNone:
	default:
		return nil, fmt.Errorf("unknown sheet.mode %q", c.Sheet.Mode)
	}

	return &c, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
