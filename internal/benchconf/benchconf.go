// Package benchconf holds the YAML configuration of the slbench tool.
package benchconf

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// default values
const (
	KEYS         = 100_000
	OPS          = 500_000
	READ_RATIO   = 0.9
	DISTRIBUTION = "zipf"
	ZIPF_A       = 1.07
	ZIPF_B       = 0.0
	VALUE_SIZE   = 64
	ARENA_SIZE   = "64 MB" // The space is important!
	SEED         = 42
	RUNS         = 5
)

type Config struct {
	Keys         int     `yaml:"keys"`
	Ops          int     `yaml:"ops"`
	ReadRatio    float64 `yaml:"read_ratio"`
	Distribution string  `yaml:"distribution"`
	ZipfA        float64 `yaml:"zipf_a"`
	ZipfB        float64 `yaml:"zipf_b"`
	ValueSize    int     `yaml:"value_size"`
	ArenaSize    string  `yaml:"arena_size"`
	Seed         int64   `yaml:"seed"`
	Runs         int     `yaml:"runs"`
	FullTowers   bool    `yaml:"full_towers"`
}

func GetDefault() Config {
	var config Config
	config.Keys = KEYS
	config.Ops = OPS
	config.ReadRatio = READ_RATIO
	config.Distribution = DISTRIBUTION
	config.ZipfA = ZIPF_A
	config.ZipfB = ZIPF_B
	config.ValueSize = VALUE_SIZE
	config.ArenaSize = ARENA_SIZE
	config.Seed = SEED
	config.Runs = RUNS
	config.FullTowers = false
	return config
}

// LoadConfig reads the config at filePath, falling back to the defaults when
// the file is missing or malformed. A config that parses but fails
// validation is an error.
func LoadConfig(filePath string) (*Config, error) {
	config := GetDefault()

	configData, err := os.ReadFile(filePath)
	if err != nil {
		log.Println("Config file at", filePath, "is not available for reading. Using defaults")
	} else {
		err = yaml.UnmarshalStrict(configData, &config)
		if err != nil {
			log.Println("Config file at", filePath, "is not valid. Using defaults. Error is:\n", err)
			config = GetDefault()
		} else {
			err := config.validate()
			if err != nil {
				return nil, err
			}
		}
	}

	return &config, nil
}

func (cfg *Config) validate() error {
	if cfg.Keys <= 0 {
		return fmt.Errorf("bench config: keys must be a positive number, but %d was given", cfg.Keys)
	}
	if cfg.Ops < 0 {
		return fmt.Errorf("bench config: ops cannot be negative, but %d was given", cfg.Ops)
	}
	if cfg.ReadRatio < 0 || cfg.ReadRatio > 1 {
		return fmt.Errorf("bench config: read_ratio must be in [0, 1], but %f was given", cfg.ReadRatio)
	}
	switch cfg.Distribution {
	case "zipf", "uniform", "sequential":
	default:
		return fmt.Errorf("bench config: unknown distribution %q (want zipf, uniform, or sequential)", cfg.Distribution)
	}
	if cfg.ValueSize < 0 {
		return fmt.Errorf("bench config: value_size cannot be negative, but %d was given", cfg.ValueSize)
	}
	if cfg.Runs <= 0 {
		return fmt.Errorf("bench config: runs must be a positive number, but %d was given", cfg.Runs)
	}
	return nil
}

func (cfg Config) Dump(filePath string) {
	configData, err := yaml.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	err = os.WriteFile(filePath, configData, 0644)
	if err != nil {
		log.Println("Can't dump at", filePath)
	}
}

// ArenaSizeBytes parses the human-readable arena size ("64 MB") into bytes,
// resetting the field to the default when it does not parse.
func (cfg *Config) ArenaSizeBytes() uint64 {
	parts := strings.Split(cfg.ArenaSize, " ")
	if len(parts) != 2 {
		cfg.ArenaSize = GetDefault().ArenaSize
		return cfg.ArenaSizeBytes()
	}

	howMany, err := strconv.Atoi(parts[0])
	if err != nil || howMany < 0 {
		cfg.ArenaSize = GetDefault().ArenaSize
		return cfg.ArenaSizeBytes()
	}
	unit := parts[1]

	exponent := map[string]int{
		"B":  0,
		"KB": 1,
		"MB": 2,
		"GB": 3,
	}
	exp, ok := exponent[unit]
	if !ok {
		cfg.ArenaSize = GetDefault().ArenaSize
		return cfg.ArenaSizeBytes()
	}

	m := uint64(1)
	for i := 0; i < exp; i++ {
		m *= 1024
	}
	return uint64(howMany) * m
}
