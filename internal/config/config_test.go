package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/orbat/pkg/core"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"sim": { "name": "Prokhorovka", "ticks": 50 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "Prokhorovka", viper.GetString("sim.name"))
	assert.Equal(t, 50, viper.GetInt("sim.ticks"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./orbatlogs", viper.GetString("logsDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "orbat", viper.GetString("db.database"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./recordings", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "sqlite", viper.GetString("storage.gorm.driver"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	// defaults are still registered
	assert.Equal(t, 600, viper.GetInt("sim.ticks"))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("ORBAT_SIM_TICKS", "42")
	t.Setenv("ORBAT_STORAGE_TYPE", "gorm")

	require.NoError(t, Load(writeConfig(t, `{"sim": {"ticks": 10}}`)))

	assert.Equal(t, 42, GetSimConfig().Ticks)
	assert.Equal(t, "gorm", GetStorageConfig().Type)
}

func TestLoadDotEnv(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ORBAT_SIM_NAME=FromDotEnv\n"), 0644))
	t.Setenv("ORBAT_SIM_NAME", "")
	require.NoError(t, os.Unsetenv("ORBAT_SIM_NAME"))

	require.NoError(t, LoadDotEnv(path))
	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "FromDotEnv", GetSimConfig().Name)
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestBindFlags(t *testing.T) {
	t.Cleanup(viper.Reset)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("sim.ticks", 0, "")
	require.NoError(t, flags.Parse([]string{"--sim.ticks=7"}))
	require.NoError(t, BindFlags(flags))
	require.NoError(t, Load(writeConfig(t, `{"sim": {"ticks": 10}}`)))

	assert.Equal(t, 7, GetSimConfig().Ticks)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, "sqlite", cfg.Gorm.Driver)
	assert.Equal(t, "", cfg.Gorm.Path)
	assert.Equal(t, 500, cfg.Gorm.BatchSize)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "gorm",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"gorm": { "driver": "postgres", "path": "aar.db", "batchSize": 50 }
		}
	}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "gorm", cfg.Type)
	assert.Equal(t, "/tmp/out", cfg.Memory.OutputDir)
	assert.Equal(t, false, cfg.Memory.CompressOutput)
	assert.Equal(t, "postgres", cfg.Gorm.Driver)
	assert.Equal(t, "aar.db", cfg.Gorm.Path)
	assert.Equal(t, 50, cfg.Gorm.BatchSize)
}

func TestGetSimConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"sim": {"tick": 0.25, "doctrine": {"firepower": 4}}}`)))

	cfg := GetSimConfig()
	assert.Equal(t, "Skirmish", cfg.Name)
	assert.Equal(t, 0.25, cfg.Tick)
	assert.Equal(t, 600, cfg.Ticks)
	assert.Equal(t, 4.0, cfg.CellSize)
	assert.Equal(t, 10, cfg.SampleEvery)

	d := cfg.Doctrine.Doctrine()
	assert.Equal(t, 4.0, d.Firepower)
	assert.Equal(t, 1.0, d.EngageRange)
	assert.Equal(t, 5.0, d.ReportInterval)
	assert.Equal(t, 0.5, d.ReportDelay)
	assert.NotNil(t, d.Objectives)
}

func TestGetInfluxConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"influx": {"enabled": true, "host": "influx", "protocol": "https"}}`)))

	cfg := GetInfluxConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://influx:8086", cfg.URL())
	assert.Equal(t, "orbat", cfg.Org)
	assert.Equal(t, "battles", cfg.Bucket)
}

func TestGetGraylogConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"graylog": {"enabled": true, "address": "gl:12201"}}`)))

	cfg := GetGraylogConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "gl:12201", cfg.Address)
}

func TestGetOrderOfBattle_Default(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	armies, err := GetOrderOfBattle()
	require.NoError(t, err)
	assert.Equal(t, DefaultOrderOfBattle(), armies)
}

func TestGetOrderOfBattle_FromFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"armies": [
			{
				"side": 3,
				"branch": "Armor",
				"position": { "x": 5, "y": -2 },
				"brigades": [ { "branch": "armor", "battalions": ["armor", "recon"] } ]
			}
		]
	}`)))

	armies, err := GetOrderOfBattle()
	require.NoError(t, err)
	require.Len(t, armies, 1)
	assert.Equal(t, 3, armies[0].Side)
	assert.Equal(t, core.Vec2{X: 5, Y: -2}, armies[0].Position)

	branch, brigades, err := armies[0].Resolve()
	require.NoError(t, err)
	assert.Equal(t, core.BranchArmor, branch)
	require.Len(t, brigades, 1)
	assert.Equal(t, core.BranchArmor, brigades[0].Branch)
	assert.Equal(t, []core.ServiceBranch{core.BranchArmor, core.BranchRecon}, brigades[0].Battalions)
}

func TestGetOrderOfBattle_Empty(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"armies": []}`)))

	_, err := GetOrderOfBattle()
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestArmyOrderResolve_UnknownBranch(t *testing.T) {
	tests := []struct {
		name  string
		order ArmyOrder
	}{
		{"army", ArmyOrder{Branch: "navy"}},
		{"brigade", ArmyOrder{Branch: "armor", Brigades: []BrigadeOrder{{Branch: "cavalry"}}}},
		{"battalion", ArmyOrder{Branch: "armor", Brigades: []BrigadeOrder{{Branch: "armor", Battalions: []string{"armor", "marines"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.order.Resolve()
			assert.ErrorIs(t, err, core.ErrUnknownBranch)
		})
	}
}

func TestDefaultOrderOfBattleResolves(t *testing.T) {
	for _, army := range DefaultOrderOfBattle() {
		_, brigades, err := army.Resolve()
		require.NoError(t, err)
		assert.NotEmpty(t, brigades)
	}
}

func TestParsePositions(t *testing.T) {
	positions, err := ParsePositions([]string{"1=5,-2", "2=POINT(40 3)", "1=6,0"})
	require.NoError(t, err)

	assert.Equal(t, map[int]core.Vec2{
		1: {X: 6, Y: 0},
		2: {X: 40, Y: 3},
	}, positions)
}

func TestParsePositions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"no side", "5,-2"},
		{"bad side", "red=5,-2"},
		{"bad coordinates", "1=5"},
		{"not a point", "1=LINESTRING(0 0,1 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePositions([]string{tt.entry})
			assert.Error(t, err)
		})
	}
}
