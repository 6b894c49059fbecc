package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/thermograph/internal/simulation"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys.
const EnvPrefix = "THERMOGRAPH_"

type Config struct {
	RunID       string            `koanf:"run_id"`
	Scenario    string            `koanf:"scenario"`
	Simulation  SimulationConfig  `koanf:"simulation"`
	Export      ExportConfig      `koanf:"export"`
	Log         LogConfig         `koanf:"log"`
	Controllers ControllersConfig `koanf:"controllers"`
}

type SimulationConfig struct {
	Step     time.Duration `koanf:"step"`
	Duration time.Duration `koanf:"duration"`
	Interval time.Duration `koanf:"interval"`
}

type ExportConfig struct {
	Dir          string `koanf:"dir"`
	Combined     bool   `koanf:"combined"`
	CombinedName string `koanf:"combined_name"`
	PerNode      bool   `koanf:"per_node"`
	SQLitePath   string `koanf:"sqlite_path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" | "json"
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt"`
	Modbus ModbusConfig `koanf:"modbus"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

// Default is the configuration used when no file or environment override
// is present.
func Default() Config {
	return Config{
		Scenario: "configs/solar_loop.yaml",
		Simulation: SimulationConfig{
			Step:     60 * time.Second,
			Duration: 24 * time.Hour,
			Interval: time.Second,
		},
		Export: ExportConfig{
			Dir:          "out",
			Combined:     true,
			CombinedName: "results.csv",
			PerNode:      true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Controllers: ControllersConfig{
			HTTP:   HTTPConfig{Enabled: true, Addr: ":8080"},
			MQTT:   MQTTConfig{BrokerURL: "tcp://localhost:1883", PublishInterval: time.Second},
			Modbus: ModbusConfig{Addr: "127.0.0.1:1502", UnitID: 1},
		},
	}
}

// LoadConfig layers defaults, the config file and THERMOGRAPH_* environment
// variables, in that order. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return koanfyaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}

func (c Config) Validate() error {
	if c.Scenario == "" {
		return errors.New("config: scenario is required")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	p := c.Params()
	return p.Validate()
}

func (c Config) Params() simulation.Params {
	return simulation.Params{
		Step:     c.Simulation.Step,
		Duration: c.Simulation.Duration,
		Interval: c.Simulation.Interval,
	}
}

var sections = []string{"simulation", "export", "log"}

// envKeyTransform maps an env var name (prefix already stripped) to a koanf
// key: CONTROLLERS_HTTP_ADDR -> controllers.http.addr,
// SIMULATION_STEP -> simulation.step, RUN_ID -> run_id.
func envKeyTransform(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return ""
	}

	if strings.HasPrefix(k, "controllers_") {
		parts := strings.SplitN(k, "_", 3)
		if len(parts) < 3 {
			return k
		}
		return parts[0] + "." + parts[1] + "." + parts[2]
	}

	for _, s := range sections {
		if strings.HasPrefix(k, s+"_") {
			return s + "." + strings.TrimPrefix(k, s+"_")
		}
	}
	return k
}
