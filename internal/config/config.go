package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("starfetch version %s, commit %s, built at %s", version, commit, date)
}

const (
	// MaxPerPage is the largest page size the GitHub REST API accepts.
	MaxPerPage = 100

	envPrefix = "STARFETCH"
)

var (
	// ErrMissingCredentials is returned when the OAuth client id or secret is not configured.
	ErrMissingCredentials = errors.New("GitHub OAuth credentials missing, please set ID and SECRET in the environment or the .env file")

	// ErrInvalidConfig wraps every other validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	OAuth   OAuthConfig   `mapstructure:"oauth"`
	GitHub  GitHubConfig  `mapstructure:"github"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type OAuthConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURL  string        `mapstructure:"redirect_url"` // defaults to server.base_url + /callback
	Scopes       []string      `mapstructure:"scopes"`
	AuthURL      string        `mapstructure:"auth_url"`  // empty means github.com
	TokenURL     string        `mapstructure:"token_url"` // empty means github.com
	StateTTL     time.Duration `mapstructure:"state_ttl"`
	VerifyState  bool          `mapstructure:"verify_state"`
}

type GitHubConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	PerPage  int           `mapstructure:"per_page"`
	MaxPages int           `mapstructure:"max_pages"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// InitFlags registers the command line flags read by Load.
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a config.yaml file")
	flags.String("env-file", ".env", "Path to a .env file holding ID and SECRET")
	flags.String("host", "", "Host to listen on")
	flags.Int("port", 8000, "Port to listen on")
	flags.String("base-url", "", "Public base URL of this server")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.disable_stacktrace", false)
	v.SetDefault("logging.output_path", "")
	v.SetDefault("logging.append_to_file", true)
	v.SetDefault("logging.disable_console", false)

	v.SetDefault("oauth.redirect_url", "")
	v.SetDefault("oauth.scopes", []string{})
	v.SetDefault("oauth.auth_url", "")
	v.SetDefault("oauth.token_url", "")
	v.SetDefault("oauth.state_ttl", "10m")
	v.SetDefault("oauth.verify_state", true)

	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.per_page", MaxPerPage)
	v.SetDefault("github.max_pages", 100)
	v.SetDefault("github.timeout", "30s")
}

// Load builds the configuration from defaults, an optional config.yaml, the
// environment (after loading the .env file) and the given flags. The returned
// value is not modified afterwards.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	envFile := ".env"
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The provider credentials keep their historical short names.
	if err := v.BindEnv("oauth.client_id", "ID", envPrefix+"_OAUTH_CLIENT_ID"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("oauth.client_secret", "SECRET", envPrefix+"_OAUTH_CLIENT_SECRET"); err != nil {
		return nil, err
	}

	if flags != nil {
		for key, flag := range map[string]string{
			"server.host":     "host",
			"server.port":     "port",
			"server.base_url": "base-url",
			"logging.level":   "log-level",
		} {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.complete(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			return v.ReadInConfig()
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/starfetch")

	if err := v.ReadInConfig(); err != nil {
		// It's OK if no config file exists, env and flags are enough
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// complete validates the loaded values and fills in derived defaults.
func (c *Config) complete() error {
	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		return ErrMissingCredentials
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	if c.GitHub.PerPage <= 0 || c.GitHub.PerPage > MaxPerPage {
		return fmt.Errorf("%w: github.per_page must be between 1 and %d", ErrInvalidConfig, MaxPerPage)
	}
	if c.GitHub.MaxPages < 0 {
		return fmt.Errorf("%w: github.max_pages must not be negative", ErrInvalidConfig)
	}
	c.GitHub.APIURL = strings.TrimSuffix(c.GitHub.APIURL, "/")

	if c.Server.BaseURL == "" {
		host := c.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		c.Server.BaseURL = fmt.Sprintf("http://%s:%d", host, c.Server.Port)
	}
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")

	if c.OAuth.RedirectURL == "" {
		c.OAuth.RedirectURL = c.Server.BaseURL + "/callback"
	}

	if c.OAuth.StateTTL <= 0 {
		return fmt.Errorf("%w: oauth.state_ttl must be positive", ErrInvalidConfig)
	}

	return nil
}

// Summary lists the effective settings without the client secret.
func (c *Config) Summary() [][]string {
	return [][]string{
		{"server.addr", c.Server.Addr()},
		{"server.base_url", c.Server.BaseURL},
		{"oauth.client_id", c.OAuth.ClientID},
		{"oauth.client_secret", strings.Repeat("*", 8)},
		{"oauth.redirect_url", c.OAuth.RedirectURL},
		{"oauth.scopes", strings.Join(c.OAuth.Scopes, ",")},
		{"oauth.verify_state", strconv.FormatBool(c.OAuth.VerifyState)},
		{"oauth.state_ttl", c.OAuth.StateTTL.String()},
		{"github.api_url", c.GitHub.APIURL},
		{"github.per_page", strconv.Itoa(c.GitHub.PerPage)},
		{"github.max_pages", strconv.Itoa(c.GitHub.MaxPages)},
		{"logging.level", c.Logging.Level},
	}
}
