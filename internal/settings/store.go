package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/metcalfc/hll/internal/logger"
)

const (
	appName          = "hll"
	settingsFileName = "settings.json"
	envPrefix        = "HLL_"
)

// envKeys maps environment variables (without prefix) to setting keys.
var envKeys = map[string]string{
	"MAX_WORDS":       KeyMaxWords,
	"HIGHLIGHT_COLOR": KeyHighlightColor,
	"MODE":            KeyMode,
	"MAX_CHARS":       KeyMaxChars,
}

// Store loads and saves Settings.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings in a JSON file, normally
// XDG_CONFIG_HOME/hll/settings.json.
type FileStore struct {
	path    string
	environ func() []string
	log     logger.Logger
	mu      sync.Mutex
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used to report ignored keys.
func WithLogger(log logger.Logger) Option {
	return func(s *FileStore) { s.log = log }
}

// WithEnviron replaces os.Environ as the source of HLL_* overrides.
func WithEnviron(fn func() []string) Option {
	return func(s *FileStore) { s.environ = fn }
}

// NewFileStore returns a store backed by path. An empty path selects the
// default location.
func NewFileStore(path string, opts ...Option) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	s := &FileStore{
		path:    path,
		environ: os.Environ,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath returns XDG_CONFIG_HOME/hll/settings.json or
// ~/.config/hll/settings.json.
func DefaultPath() string {
	return filepath.Join(getConfigDir(), settingsFileName)
}

func getConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the settings file and environment over the defaults. Missing
// keys keep their default; keys with invalid values are skipped one by one.
// A missing file is not an error.
func (s *FileStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Defaults(), fmt.Errorf("failed to load defaults: %w", err)
	}

	raw, err := s.readFile()
	if err != nil {
		s.log.Warn("settings file unreadable, using defaults", "path", s.path, "error", err)
	}
	s.merge(k, raw, "file")

	envMap, err := env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   s.environ,
	}).Read()
	if err != nil {
		return Defaults(), fmt.Errorf("failed to read environment: %w", err)
	}
	s.merge(k, envMap, "env")

	var out Settings
	if err := unmarshal(k.All(), &out); err != nil {
		return Defaults(), fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := Validate(out); err != nil {
		return Defaults(), err
	}
	return out, nil
}

// Save writes s to the settings file.
func (s *FileStore) Save(settings Settings) error {
	if err := Validate(settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) readFile() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// merge sets each known key whose value passes validation on its own.
func (s *FileStore) merge(k *koanf.Koanf, values map[string]any, source string) {
	for key, value := range values {
		field, ok := fieldNames[key]
		if !ok {
			s.log.Debug("ignoring unknown setting", "key", key, "source", source)
			continue
		}
		candidate := Defaults()
		if err := unmarshal(map[string]any{key: value}, &candidate); err != nil {
			s.log.Warn("ignoring invalid setting", "key", key, "value", value, "source", source, "error", err)
			continue
		}
		if err := validate.StructPartial(candidate, field); err != nil {
			s.log.Warn("ignoring invalid setting", "key", key, "value", value, "source", source)
			continue
		}
		if err := k.Set(key, value); err != nil {
			s.log.Warn("failed to apply setting", "key", key, "error", err)
		}
	}
}

// transformEnvKey maps HLL_MAX_WORDS to maxWords; unknown variables map to
// the empty key and are dropped by the provider.
func transformEnvKey(key, value string) (string, any) {
	name := strings.TrimPrefix(key, envPrefix)
	if k, ok := envKeys[name]; ok {
		return k, value
	}
	return "", nil
}

func unmarshal(in map[string]any, out *Settings) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		TagName:          "koanf",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
