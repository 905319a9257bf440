package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/OCAP2/orbat/internal/ai"
	"github.com/OCAP2/orbat/internal/geo"
	"github.com/OCAP2/orbat/internal/unit"
	"github.com/OCAP2/orbat/pkg/core"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the name of the JSON config file looked up in the config directory.
const FileName = "orbat.cfg.json"

// EnvPrefix prefixes every environment override, e.g. ORBAT_SIM_TICKS.
const EnvPrefix = "ORBAT"

// ErrEmptyOrder is returned when the order of battle has no armies.
var ErrEmptyOrder = errors.New("order of battle has no armies")

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// GormConfig holds settings for the SQL storage backend
type GormConfig struct {
	// Driver is "sqlite" or "postgres". Postgres falls back to sqlite when unreachable.
	Driver string `json:"driver" mapstructure:"driver"`
	// Path of the sqlite file. Empty means in memory.
	Path      string `json:"path" mapstructure:"path"`
	BatchSize int    `json:"batchSize" mapstructure:"batchSize"`
}

// StorageConfig selects and configures the recording backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	Gorm   GormConfig   `json:"gorm" mapstructure:"gorm"`
}

// DoctrineConfig tunes the reference controllers
type DoctrineConfig struct {
	Firepower        float64 `json:"firepower" mapstructure:"firepower"`
	EngageRange      float64 `json:"engageRange" mapstructure:"engageRange"`
	ArrivalTolerance float64 `json:"arrivalTolerance" mapstructure:"arrivalTolerance"`
	ReportInterval   float64 `json:"reportInterval" mapstructure:"reportInterval"`
	ReportDelay      float64 `json:"reportDelay" mapstructure:"reportDelay"`
}

// Doctrine converts the settings into a doctrine with no objectives.
func (c DoctrineConfig) Doctrine() *ai.Doctrine {
	d := ai.DefaultDoctrine()
	d.Firepower = c.Firepower
	d.EngageRange = c.EngageRange
	d.ArrivalTolerance = c.ArrivalTolerance
	d.ReportInterval = c.ReportInterval
	d.ReportDelay = c.ReportDelay
	return d
}

// SimConfig holds the settings of a headless run
type SimConfig struct {
	Name string `json:"name" mapstructure:"name"`
	// Tick is simulated seconds per step.
	Tick float64 `json:"tick" mapstructure:"tick"`
	// Ticks is the maximum number of steps. Zero runs until one side is left.
	Ticks    int     `json:"ticks" mapstructure:"ticks"`
	CellSize float64 `json:"cellSize" mapstructure:"cellSize"`
	// SampleEvery is the number of steps between two recorded platoon snapshots.
	SampleEvery int            `json:"sampleEvery" mapstructure:"sampleEvery"`
	Doctrine    DoctrineConfig `json:"doctrine" mapstructure:"doctrine"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the server address, e.g. http://localhost:8086.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// BrigadeOrder is one brigade of an army in the order of battle
type BrigadeOrder struct {
	Branch     string   `json:"branch" mapstructure:"branch"`
	Battalions []string `json:"battalions" mapstructure:"battalions"`
}

// ArmyOrder is one army in the order of battle
type ArmyOrder struct {
	Side     int            `json:"side" mapstructure:"side"`
	Branch   string         `json:"branch" mapstructure:"branch"`
	Position core.Vec2      `json:"position" mapstructure:"position"`
	Brigades []BrigadeOrder `json:"brigades" mapstructure:"brigades"`
}

// Resolve parses the branch names of the army and its brigades.
func (a ArmyOrder) Resolve() (core.ServiceBranch, []unit.BrigadeConfig, error) {
	branch, err := core.ParseServiceBranch(a.Branch)
	if err != nil {
		return 0, nil, fmt.Errorf("army of side %d: %w", a.Side, err)
	}

	brigades := make([]unit.BrigadeConfig, 0, len(a.Brigades))
	for i, bo := range a.Brigades {
		bb, err := core.ParseServiceBranch(bo.Branch)
		if err != nil {
			return 0, nil, fmt.Errorf("army of side %d, brigade %d: %w", a.Side, i, err)
		}
		bc := unit.BrigadeConfig{Branch: bb}
		for j, name := range bo.Battalions {
			b, err := core.ParseServiceBranch(name)
			if err != nil {
				return 0, nil, fmt.Errorf("army of side %d, brigade %d, battalion %d: %w", a.Side, i, j, err)
			}
			bc.Battalions = append(bc.Battalions, b)
		}
		brigades = append(brigades, bc)
	}
	return branch, brigades, nil
}

// ParsePositions parses spawn point overrides of the form "side=x,y" or
// "side=POINT(x y)", keyed by side. A later entry for a side wins.
func ParsePositions(entries []string) (map[int]core.Vec2, error) {
	positions := make(map[int]core.Vec2, len(entries))
	for _, entry := range entries {
		sideStr, coords, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("position %q: expected side=coordinates", entry)
		}
		side, err := strconv.Atoi(strings.TrimSpace(sideStr))
		if err != nil {
			return nil, fmt.Errorf("position %q: invalid side: %w", entry, err)
		}
		pos, err := geo.ParseVec(coords)
		if err != nil {
			return nil, fmt.Errorf("position %q: %w", entry, err)
		}
		positions[side] = pos
	}
	return positions, nil
}

// DefaultOrderOfBattle is a two-brigade army per side, ten units apart.
func DefaultOrderOfBattle() []ArmyOrder {
	return []ArmyOrder{
		{
			Side:     1,
			Branch:   "mechanized",
			Position: core.Vec2{X: 0, Y: 0},
			Brigades: []BrigadeOrder{
				{Branch: "infantry", Battalions: []string{"infantry", "infantry", "recon"}},
				{Branch: "armor", Battalions: []string{"armor", "mechanized"}},
			},
		},
		{
			Side:     2,
			Branch:   "infantry",
			Position: core.Vec2{X: 10, Y: 0},
			Brigades: []BrigadeOrder{
				{Branch: "infantry", Battalions: []string{"infantry", "infantry", "engineer"}},
				{Branch: "artillery", Battalions: []string{"artillery", "infantry"}},
			},
		},
	}
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./orbatlogs")

	viper.SetDefault("sim.name", "Skirmish")
	viper.SetDefault("sim.tick", 1.0)
	viper.SetDefault("sim.ticks", 600)
	viper.SetDefault("sim.cellSize", unit.VisibilityRadius)
	viper.SetDefault("sim.sampleEvery", 10)
	viper.SetDefault("sim.doctrine.firepower", 10.0)
	viper.SetDefault("sim.doctrine.engageRange", 1.0)
	viper.SetDefault("sim.doctrine.arrivalTolerance", 0.05)
	viper.SetDefault("sim.doctrine.reportInterval", 5.0)
	viper.SetDefault("sim.doctrine.reportDelay", 0.5)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "orbat")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.gorm.driver", "sqlite")
	viper.SetDefault("storage.gorm.path", "")
	viper.SetDefault("storage.gorm.batchSize", 500)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "orbat")
	viper.SetDefault("influx.bucket", "battles")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load sets default values, enables ORBAT_* environment overrides and reads
// the JSON config file from configDir. Defaults and environment stay in
// effect when the file cannot be read.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// BindFlags makes command line flags override every other source. Flag
// names are config keys, e.g. --sim.ticks.
func BindFlags(flags *pflag.FlagSet) error {
	return viper.BindPFlags(flags)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		Gorm: GormConfig{
			Driver:    viper.GetString("storage.gorm.driver"),
			Path:      viper.GetString("storage.gorm.path"),
			BatchSize: viper.GetInt("storage.gorm.batchSize"),
		},
	}
}

// GetSimConfig returns the run settings.
func GetSimConfig() SimConfig {
	return SimConfig{
		Name:        viper.GetString("sim.name"),
		Tick:        viper.GetFloat64("sim.tick"),
		Ticks:       viper.GetInt("sim.ticks"),
		CellSize:    viper.GetFloat64("sim.cellSize"),
		SampleEvery: viper.GetInt("sim.sampleEvery"),
		Doctrine: DoctrineConfig{
			Firepower:        viper.GetFloat64("sim.doctrine.firepower"),
			EngageRange:      viper.GetFloat64("sim.doctrine.engageRange"),
			ArrivalTolerance: viper.GetFloat64("sim.doctrine.arrivalTolerance"),
			ReportInterval:   viper.GetFloat64("sim.doctrine.reportInterval"),
			ReportDelay:      viper.GetFloat64("sim.doctrine.reportDelay"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOrderOfBattle returns the configured armies, or DefaultOrderOfBattle
// when none are configured.
func GetOrderOfBattle() ([]ArmyOrder, error) {
	if !viper.IsSet("armies") {
		return DefaultOrderOfBattle(), nil
	}

	var armies []ArmyOrder
	if err := viper.UnmarshalKey("armies", &armies); err != nil {
		return nil, fmt.Errorf("error decoding armies: %w", err)
	}
	if len(armies) == 0 {
		return nil, ErrEmptyOrder
	}
	return armies, nil
}
