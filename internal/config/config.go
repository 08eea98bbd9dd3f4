package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable the server depends on. The game core never
// reads the environment itself; everything is handed to it from here at
// construction time.
type Config struct {
	Port        int
	Development bool

	MaxPlayersPerLobby int
	InitialHandSize    int
	TurnDuration       time.Duration
	SelectionDuration  time.Duration

	OutboundBufferSize   int
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// Load reads configuration from SHITHEAD_* environment variables, falling
// back to defaults matching the reference deployment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHITHEAD")
	v.AutomaticEnv()

	v.SetDefault("port", 7522)
	v.SetDefault("development", false)
	v.SetDefault("max_players_per_lobby", 6)
	v.SetDefault("initial_hand_size", 6)
	v.SetDefault("turn_duration", 20*time.Second)
	v.SetDefault("selection_duration", 20*time.Second)
	v.SetDefault("outbound_buffer_size", 200)
	v.SetDefault("rate_limit_max_requests", 20)
	v.SetDefault("rate_limit_window", time.Second)

	cfg := &Config{
		Port:                 v.GetInt("port"),
		Development:          v.GetBool("development"),
		MaxPlayersPerLobby:   v.GetInt("max_players_per_lobby"),
		InitialHandSize:      v.GetInt("initial_hand_size"),
		TurnDuration:         v.GetDuration("turn_duration"),
		SelectionDuration:    v.GetDuration("selection_duration"),
		OutboundBufferSize:   v.GetInt("outbound_buffer_size"),
		RateLimitMaxRequests: v.GetInt("rate_limit_max_requests"),
		RateLimitWindow:      v.GetDuration("rate_limit_window"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxPlayersPerLobby < 2 {
		return fmt.Errorf("max players per lobby must be at least 2, got %d", c.MaxPlayersPerLobby)
	}
	if c.InitialHandSize < 3 {
		// the selection phase moves up to 3 cards out of the hand
		return fmt.Errorf("initial hand size must be at least 3, got %d", c.InitialHandSize)
	}
	// every player is dealt a hand plus three down cards from one 54 card deck
	if c.MaxPlayersPerLobby*(c.InitialHandSize+3) > 54 {
		return fmt.Errorf("%d players with %d hand cards each cannot be dealt from one deck",
			c.MaxPlayersPerLobby, c.InitialHandSize)
	}
	if c.TurnDuration <= 0 || c.SelectionDuration <= 0 {
		return fmt.Errorf("turn and selection durations must be positive")
	}
	return nil
}
