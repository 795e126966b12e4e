// File: internal/config/manager.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"voltct/internal/errs"
)

// ConfigManager reads the effective configuration (defaults, file, VOLTCT_* env) through viper
// and edits the YAML file directly so that only explicitly set keys are persisted
type ConfigManager struct {
	v        *viper.Viper
	path     string
	validate *validator.Validate
}

// Creates a manager for the config file at path. An empty path selects ~/.config/voltct/config.yaml
func NewConfigManager(path string) (*ConfigManager, error) {
	if path == "" {
		defaultPath, err := defaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	m := &ConfigManager{
		path:     path,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ConfigManager) Path() string {
	return m.path
}

func (m *ConfigManager) reload() error {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(m.path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return errs.Configuration("read config file", fmt.Errorf("%s: %w", m.path, err))
		}
	}

	m.v = v
	return nil
}

// Decodes and validates the effective configuration
func (m *ConfigManager) LoadConfig() (*Config, error) {
	return m.decode(m.v)
}

func (m *ConfigManager) decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errs.Configuration("decode config", err)
	}

	if err := m.validate.Struct(&cfg); err != nil {
		return nil, errs.Configuration("validate config", describeValidationErrors(err))
	}
	return &cfg, nil
}

func describeValidationErrors(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s fails '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Returns every key accepted by 'config set', sorted
func SupportedKeys() []string {
	keys := make([]string, 0)
	for k := range defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isSupportedKey(key string) bool {
	_, ok := defaults()[key]
	return ok
}

// Persists key=value to the config file after checking the resulting configuration is valid
func (m *ConfigManager) SetValue(key, value string) error {
	if !isSupportedKey(key) {
		return errs.Configurationf("set config value", "unknown config key '%s'. Supported keys: %s", key, strings.Join(SupportedKeys(), ", "))
	}

	typed, err := coerceValue(key, value)
	if err != nil {
		return errs.Configuration("set config value", err)
	}

	doc, err := m.readFile()
	if err != nil {
		return err
	}
	setNested(doc, key, typed)

	candidate := viper.New()
	for k, val := range defaults() {
		candidate.SetDefault(k, val)
	}
	if err := candidate.MergeConfigMap(doc); err != nil {
		return errs.Configuration("set config value", err)
	}
	if _, err := m.decode(candidate); err != nil {
		return err
	}

	if err := m.writeFile(doc); err != nil {
		return err
	}
	return m.reload()
}

// Returns the effective value for key and whether the key is supported
func (m *ConfigManager) GetValue(key string) (any, bool) {
	if !isSupportedKey(key) {
		return nil, false
	}
	return m.v.Get(key), true
}

// Removes key from the config file. Returns false when the file did not set it
func (m *ConfigManager) DeleteValue(key string) (bool, error) {
	if !isSupportedKey(key) {
		return false, errs.Configurationf("delete config value", "unknown config key '%s'", key)
	}

	doc, err := m.readFile()
	if err != nil {
		return false, err
	}
	if !deleteNested(doc, key) {
		return false, nil
	}

	if err := m.writeFile(doc); err != nil {
		return false, err
	}
	return true, m.reload()
}

// Returns the merged settings (defaults, file and environment) as a nested map
func (m *ConfigManager) GetAllSettings() map[string]any {
	return m.v.AllSettings()
}

func (m *ConfigManager) readFile() (map[string]any, error) {
	doc := make(map[string]any)

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, errs.Configuration("read config file", err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Configuration("parse config file", fmt.Errorf("%s: %w", m.path, err))
	}
	return doc, nil
}

func (m *ConfigManager) writeFile(doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Converts the CLI string into the type of the key's default so the YAML file stays typed
func coerceValue(key, value string) (any, error) {
	switch def := defaults()[key].(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value for '%s' must be an integer: %w", key, err)
		}
		return n, nil
	case time.Duration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("value for '%s' must be a duration like 10m: %w", key, err)
		}
		return value, nil
	case []string:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case string:
		return value, nil
	default:
		return nil, fmt.Errorf("unsupported type %s for key '%s'", reflect.TypeOf(def), key)
	}
}

func setNested(doc map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func deleteNested(doc map[string]any, key string) bool {
	parts := strings.Split(key, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	leaf := parts[len(parts)-1]
	if _, ok := current[leaf]; !ok {
		return false
	}
	delete(current, leaf)

	// Drop sections left empty so the file does not accumulate '{}' entries
	if len(current) == 0 && len(parts) > 1 {
		delete(doc, parts[0])
	}
	return true
}
