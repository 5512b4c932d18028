// Package config loads user settings from ~/.arcanea/config.yaml and
// ARCANEA_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/arcanea-realm/arcanea/internal/keystore"
)

const (
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "ARCANEA"
)

// Keys
const (
	KeyDefaultLevel   = "default_level"
	KeyAuthTimeout    = "auth_timeout"
	KeyVersionTimeout = "version_timeout"
	KeyKeystorePath   = "keystore_path"
	KeyAWSRegion      = "aws_region"
	KeyCommentsURL    = "comments.url"
	KeyCommentsKey    = "comments.key"
	KeyCommentsUser   = "comments.user"
	KeyTTSProvider    = "tts.provider"
	KeyTTSVoice       = "tts.voice"
	KeyTTSFormat      = "tts.format"
	KeyTTSSpeed       = "tts.speed"
	KeyTTSMode        = "tts.mode"
	KeyTTSMaxChars    = "tts.max_chars"
	KeyTTSEngine      = "tts.engine"
	KeyGCPCredentials = "tts.gcp_credentials"
	KeyGCPLanguage    = "tts.gcp_language"
)

// Keys lists every recognised key in display order.
var Keys = []string{
	KeyDefaultLevel, KeyAuthTimeout, KeyVersionTimeout, KeyKeystorePath, KeyAWSRegion,
	KeyCommentsURL, KeyCommentsKey, KeyCommentsUser,
	KeyTTSProvider, KeyTTSVoice, KeyTTSFormat, KeyTTSSpeed, KeyTTSMode, KeyTTSMaxChars, KeyTTSEngine,
	KeyGCPCredentials, KeyGCPLanguage,
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Dir returns the Arcanea config directory (~/.arcanea/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return keystore.CredentialsDir
	}
	return filepath.Join(home, keystore.CredentialsDir)
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Config is a loaded settings view.
type Config struct {
	v    *viper.Viper
	path string
}

// TTS holds speech settings.
type TTS struct {
	Provider       string
	Voice          string
	Format         string
	Speed          float64
	Mode           string
	MaxChars       int
	Engine         string
	AWSRegion      string
	GCPCredentials string
	GCPLanguage    string
}

// Load reads path (FilePath when empty) and the environment. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FilePath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDefaultLevel, "standard")
	v.SetDefault(KeyAuthTimeout, 10*time.Second)
	v.SetDefault(KeyVersionTimeout, 2*time.Second)
	v.SetDefault(KeyTTSProvider, "openai")
	v.SetDefault(KeyTTSMode, "first_line")
	v.SetDefault(KeyTTSMaxChars, 500)
	v.SetDefault(KeyTTSSpeed, 1.0)
	v.SetDefault(KeyTTSFormat, "mp3")
	v.SetDefault(KeyGCPLanguage, "en-US")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("No config file found")
	} else {
		log.Debug().Str("path", path).Msg("Loaded config")
		checkFilePermissions(path)
	}

	return &Config{v: v, path: path}, nil
}

// Path returns the file this config reads and writes.
func (c *Config) Path() string {
	return c.path
}

// Get returns a value as a string with ${VAR} references expanded.
func (c *Config) Get(key string) string {
	return expandEnvVars(c.v.GetString(key))
}

// IsSet reports whether key has a value from the file or environment.
func (c *Config) IsSet(key string) bool {
	return c.v.InConfig(key) || os.Getenv(envName(key)) != ""
}

// Set writes a key to the config file, creating it when needed. Only values
// already in the file are written back, never defaults or environment values.
func (c *Config) Set(key, value string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := viper.New()
	file.SetConfigFile(c.path)
	file.SetConfigType(fileType)
	if _, err := os.Stat(c.path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", c.path, err)
		}
	}

	file.Set(key, value)
	c.v.Set(key, value)
	if err := file.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(c.path, 0600); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	return nil
}

// DefaultLevel is the overlay level used when none is given.
func (c *Config) DefaultLevel() string {
	return c.Get(KeyDefaultLevel)
}

// AuthTimeout bounds each credential validation.
func (c *Config) AuthTimeout() time.Duration {
	return c.v.GetDuration(KeyAuthTimeout)
}

// VersionTimeout bounds each tool version check.
func (c *Config) VersionTimeout() time.Duration {
	return c.v.GetDuration(KeyVersionTimeout)
}

// KeystorePath is the encrypted credential file.
func (c *Config) KeystorePath() (string, error) {
	if p := c.Get(KeyKeystorePath); p != "" {
		return p, nil
	}
	return keystore.DefaultPath()
}

// AWSRegion is shared by STS validation and Polly.
func (c *Config) AWSRegion() string {
	return c.Get(KeyAWSRegion)
}

// Comments returns the comment service endpoint, key and default user.
func (c *Config) Comments() (url, key, user string) {
	return c.Get(KeyCommentsURL), c.Get(KeyCommentsKey), c.Get(KeyCommentsUser)
}

// TTS returns the speech settings.
func (c *Config) TTS() TTS {
	return TTS{
		Provider:       c.Get(KeyTTSProvider),
		Voice:          c.Get(KeyTTSVoice),
		Format:         c.Get(KeyTTSFormat),
		Speed:          c.v.GetFloat64(KeyTTSSpeed),
		Mode:           c.Get(KeyTTSMode),
		MaxChars:       c.v.GetInt(KeyTTSMaxChars),
		Engine:         c.Get(KeyTTSEngine),
		AWSRegion:      c.AWSRegion(),
		GCPCredentials: c.Get(KeyGCPCredentials),
		GCPLanguage:    c.Get(KeyGCPLanguage),
	}
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// expandEnvVars replaces ${VAR} patterns with environment variable values
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		if value, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return value
		}
		log.Debug().Msg("Referenced environment variable not set in config")
		return ""
	})
}

func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		log.Warn().
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("Config file may contain secrets but has permissive permissions. Consider: chmod 600")
	}
}
