// Package config layers compiled-in defaults, an optional YAML file, and
// environment variables under the CLI flags parsed in internal/app.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the fully-resolved configuration handed to the hub
// constructor (§6 CLI surface, plus the supplemented --config layer).
type Settings struct {
	Host                  string
	Port                  int
	Players               int
	BroadcastInterval     time.Duration
	MaxTicks              int
	Seed                  uint64
	JoinCode              string
	Sandbox               bool
	SaveReplay            bool
	ReplayFilepath        string
	OverwriteReplayFile   bool
	EagerBroadcast        bool

	EnablePprofTrace bool
}

// Defaults returns the compiled-in baseline every layer overrides.
func Defaults() Settings {
	return Settings{
		Host:              "localhost",
		Port:              5000,
		Players:           2,
		BroadcastInterval: 66 * time.Millisecond,
		MaxTicks:          3000,
		JoinCode:          "",
		Sandbox:           false,
		SaveReplay:        false,
		ReplayFilepath:    "replay.json.gz",
		EagerBroadcast:    false,
	}
}

// Load reads an optional YAML config file (validated against schemaJSON
// when present) and environment variables (MONOTANKS_* prefix) on top of
// Defaults. CLI flags are applied by the caller afterward, per the layering
// order file < env < flags.
func Load(configPath string) (Settings, error) {
	s := Defaults()

	v := viper.New()
	v.SetEnvPrefix("MONOTANKS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if configPath != "" {
		if err := ValidateFile(configPath); err != nil {
			return s, fmt.Errorf("config: %w", err)
		}
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return s, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	if v.IsSet("host") {
		s.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		s.Port = v.GetInt("port")
	}
	if v.IsSet("players") {
		s.Players = v.GetInt("players")
	}
	if v.IsSet("broadcastInterval") {
		s.BroadcastInterval = v.GetDuration("broadcastInterval")
	}
	if v.IsSet("ticks") {
		s.MaxTicks = v.GetInt("ticks")
	}
	if v.IsSet("seed") {
		s.Seed = uint64(v.GetInt64("seed"))
	}
	if v.IsSet("joinCode") {
		s.JoinCode = v.GetString("joinCode")
	}
	if v.IsSet("sandbox") {
		s.Sandbox = v.GetBool("sandbox")
	}
	if v.IsSet("saveReplay") {
		s.SaveReplay = v.GetBool("saveReplay")
	}
	if v.IsSet("replayFilepath") {
		s.ReplayFilepath = v.GetString("replayFilepath")
	}
	if v.IsSet("overwriteReplayFile") {
		s.OverwriteReplayFile = v.GetBool("overwriteReplayFile")
	}
	if v.IsSet("eagerBroadcast") {
		s.EagerBroadcast = v.GetBool("eagerBroadcast")
	}
	if v.IsSet("enablePprofTrace") {
		s.EnablePprofTrace = v.GetBool("enablePprofTrace")
	}
	return s, nil
}

// Validate checks field ranges the CLI surface documents (§6) after all
// layers have been merged.
func (s Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("config: port %d out of range 1..65535", s.Port)
	}
	if s.Players < 2 || s.Players > 4 {
		return fmt.Errorf("config: players %d out of range 2..4", s.Players)
	}
	if s.BroadcastInterval <= 0 {
		return fmt.Errorf("config: broadcastInterval must be positive")
	}
	if s.MaxTicks <= 0 {
		return fmt.Errorf("config: ticks must be positive")
	}
	return nil
}
