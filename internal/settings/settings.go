// Package settings loads and saves user preferences as JSON.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"pcmanager/internal/appdir"
)

// Filename is the settings file inside the application data directory.
const Filename = "settings.json"

const (
	MinRefreshInterval = 1
	MaxRefreshInterval = 3600
)

// Settings are the user preferences. JSON keys are camelCase; unknown keys
// are ignored on load.
type Settings struct {
	StartWithWindows       bool   `json:"startWithWindows"`
	AutoRefreshEnabled     bool   `json:"autoRefreshEnabled"`
	RefreshIntervalSeconds int    `json:"refreshIntervalSeconds"`
	MinimizeToTray         bool   `json:"minimizeToTray"`
	ShowNotifications      bool   `json:"showNotifications"`
	AutoCleanupOnStartup   bool   `json:"autoCleanupOnStartup"`
	CheckForUpdates        bool   `json:"checkForUpdates"`
	Language               string `json:"language"`
	Theme                  string `json:"theme"`
	EnableLogging          bool   `json:"enableLogging"`
	LogLevel               string `json:"logLevel"`
	AutoRAMCleanupEnabled  bool   `json:"autoRamCleanupEnabled"`
	RAMCleanupThresholdMB  int    `json:"ramCleanupThresholdMB"`
	ShowCPUCard            bool   `json:"showCpuCard"`
	ShowMemoryCard         bool   `json:"showMemoryCard"`
	ShowDiskCard           bool   `json:"showDiskCard"`
	ShowPowerCard          bool   `json:"showPowerCard"`
}

// Default returns the settings used when nothing has been saved.
func Default() Settings {
	return Settings{
		RefreshIntervalSeconds: 5,
		Language:               "tr-TR",
		Theme:                  "Dark",
		LogLevel:               "Info",
		RAMCleanupThresholdMB:  2048,
		ShowCPUCard:            true,
		ShowMemoryCard:         true,
		ShowDiskCard:           true,
		ShowPowerCard:          true,
	}
}

// Normalize clamps numeric fields and fills empty strings with defaults.
func (s *Settings) Normalize() {
	def := Default()
	switch {
	case s.RefreshIntervalSeconds < MinRefreshInterval:
		s.RefreshIntervalSeconds = MinRefreshInterval
	case s.RefreshIntervalSeconds > MaxRefreshInterval:
		s.RefreshIntervalSeconds = MaxRefreshInterval
	}
	if s.RAMCleanupThresholdMB <= 0 {
		s.RAMCleanupThresholdMB = def.RAMCleanupThresholdMB
	}
	if strings.TrimSpace(s.Language) == "" {
		s.Language = def.Language
	}
	if strings.TrimSpace(s.Theme) == "" {
		s.Theme = def.Theme
	}
	if strings.TrimSpace(s.LogLevel) == "" {
		s.LogLevel = def.LogLevel
	}
}

// Store reads and writes one settings file.
type Store struct {
	path string
}

// NewStore returns a Store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns a Store in the application data directory.
func DefaultStore() *Store {
	return NewStore(appdir.File(Filename))
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load reads the settings file. It never fails: a missing, empty or
// malformed file yields defaults.
func (s *Store) Load() Settings {
	cfg := Default()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read settings, using defaults", "path", s.path, "error", err)
		}
		return cfg
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg
	}

	if err := json.Unmarshal(stripComments(data), &cfg); err != nil {
		slog.Warn("malformed settings file, using defaults", "path", s.path, "error", err)
		return Default()
	}
	cfg.Normalize()
	return cfg
}

// stripComments blanks out // and /* */ comments outside string literals,
// keeping newlines so decode errors still point at the right line.
func stripComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '/' && i+1 < len(data) {
			switch data[i+1] {
			case '/':
				for i < len(data) && data[i] != '\n' {
					i++
				}
				if i < len(data) {
					out = append(out, '\n')
				}
				continue
			case '*':
				i += 2
				for i < len(data) && !(data[i] == '*' && i+1 < len(data) && data[i+1] == '/') {
					if data[i] == '\n' {
						out = append(out, '\n')
					}
					i++
				}
				i++
				out = append(out, ' ')
				continue
			}
		}
		if c == '"' {
			inString = true
		}
		out = append(out, c)
	}
	return out
}

// Save writes cfg as indented JSON, replacing the file atomically.
func (s *Store) Save(cfg Settings) error {
	cfg.Normalize()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := appdir.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Reset saves and returns the defaults.
func (s *Store) Reset() (Settings, error) {
	cfg := Default()
	return cfg, s.Save(cfg)
}

// Keys lists the JSON keys accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type field struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func boolField(p func(*Settings) *bool) field {
	return field{
		get: func(s *Settings) string { return strconv.FormatBool(*p(s)) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			*p(s) = b
			return nil
		},
	}
}

func intField(p func(*Settings) *int) field {
	return field{
		get: func(s *Settings) string { return strconv.Itoa(*p(s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected a whole number, got %q", v)
			}
			*p(s) = n
			return nil
		},
	}
}

func stringField(p func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error {
			*p(s) = strings.TrimSpace(v)
			return nil
		},
	}
}

var fields = map[string]field{
	"startWithWindows":       boolField(func(s *Settings) *bool { return &s.StartWithWindows }),
	"autoRefreshEnabled":     boolField(func(s *Settings) *bool { return &s.AutoRefreshEnabled }),
	"refreshIntervalSeconds": intField(func(s *Settings) *int { return &s.RefreshIntervalSeconds }),
	"minimizeToTray":         boolField(func(s *Settings) *bool { return &s.MinimizeToTray }),
	"showNotifications":      boolField(func(s *Settings) *bool { return &s.ShowNotifications }),
	"autoCleanupOnStartup":   boolField(func(s *Settings) *bool { return &s.AutoCleanupOnStartup }),
	"checkForUpdates":        boolField(func(s *Settings) *bool { return &s.CheckForUpdates }),
	"language":               stringField(func(s *Settings) *string { return &s.Language }),
	"theme":                  stringField(func(s *Settings) *string { return &s.Theme }),
	"enableLogging":          boolField(func(s *Settings) *bool { return &s.EnableLogging }),
	"logLevel":               stringField(func(s *Settings) *string { return &s.LogLevel }),
	"autoRamCleanupEnabled":  boolField(func(s *Settings) *bool { return &s.AutoRAMCleanupEnabled }),
	"ramCleanupThresholdMB":  intField(func(s *Settings) *int { return &s.RAMCleanupThresholdMB }),
	"showCpuCard":            boolField(func(s *Settings) *bool { return &s.ShowCPUCard }),
	"showMemoryCard":         boolField(func(s *Settings) *bool { return &s.ShowMemoryCard }),
	"showDiskCard":           boolField(func(s *Settings) *bool { return &s.ShowDiskCard }),
	"showPowerCard":          boolField(func(s *Settings) *bool { return &s.ShowPowerCard }),
}

// Get returns the value of key formatted as text.
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return f.get(s), nil
}

// Set parses value and assigns it to key, then normalizes s.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := f.set(s, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	s.Normalize()
	return nil
}
