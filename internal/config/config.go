package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"surveyor/internal/game"
	"surveyor/internal/survey"
	"surveyor/internal/tailer"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalid wraps every schema violation.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	LogDirectory string     `yaml:"log_directory"`
	BatchSize    int        `yaml:"batch_size"`
	Zone         string     `yaml:"zone"`
	PlayerPos    [2]float64 `yaml:"player_pos"`
	MapWidth     float64    `yaml:"map_width"`
	MapHeight    float64    `yaml:"map_height"`
	LogPattern   LogPattern `yaml:"log_pattern"`
	Encoding     string     `yaml:"encoding"`

	LogLevel    string `yaml:"log_level"`
	DebugLog    string `yaml:"debug_log"`
	JournalPath string `yaml:"journal_path"`
	CaptureDir  string `yaml:"capture_dir"`

	Observer   Observer `yaml:"observer"`
	ExportPath string   `yaml:"export_path"`
	Theme      string   `yaml:"theme"`
}

type LogPattern struct {
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

type Observer struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BatchSize: 5,
		Zone:      survey.DefaultZone,
		PlayerPos: [2]float64{0.5, 0.5},
		MapWidth:  750,
		MapHeight: 750,
		LogPattern: LogPattern{
			Prefix: tailer.DefaultPrefix,
			Suffix: tailer.DefaultSuffix,
		},
		Encoding:   "utf-8",
		LogLevel:   "info",
		DebugLog:   "surveyor_debug.log",
		Observer:   Observer{Addr: "127.0.0.1:7777"},
		ExportPath: "route.png",
		Theme:      "field",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/surveyor/config.yaml, or the platform
// config directory when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "config.yaml"
		}
		base = dir
	}
	return filepath.Join(base, "surveyor", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	return Parse(raw)
}

// Parse validates raw YAML against the schema and decodes it over the
// defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	if err := validate(raw); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	return cfg, nil
}

func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config.yaml: %w", err)
	}
	if doc == nil {
		return nil
	}

	// Round trip through JSON so the validator sees JSON types.
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var inst any
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	if err := dec.Decode(&inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load config schema: %w", err)
	}
	return c.Compile("config.schema.json")
}

// Decoder returns the log decoder for the configured encoding.
func (c Config) Decoder() (*tailer.Decoder, error) {
	return tailer.NewDecoder(c.Encoding)
}

// Apply seeds state with the configured starting values.
func Apply(c Config, s *game.State) {
	s.SetBatchSize(c.BatchSize)
	if c.Zone != "" {
		s.Zone = c.Zone
	}
	s.SetPlayerPos(c.PlayerPos[0], c.PlayerPos[1])
	s.SetMapSize(c.MapWidth, c.MapHeight)
}
