// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/threecard/internal/cards"
	"github.com/jason-s-yu/threecard/internal/game"
	"github.com/jason-s-yu/threecard/internal/history"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const cardsPerDeck = 52

// Config holds the server parameters fixed at construction.
type Config struct {
	Port            int
	IPv6            bool
	ProfileIDs      []string
	InitNetWorth    int
	TurnTime        time.Duration
	MaxBet          int
	DeckCount       int
	RoundResultWait time.Duration
	Tick            time.Duration
	RestartDelay    time.Duration

	LogLevel  string
	LogFormat string

	// RedisAddr enables the round history queue when set.
	RedisAddr    string
	RedisDB      int
	HistoryQueue string
}

// Default returns the demo table: two seats, 500 each, 30s turns.
func Default() Config {
	return Config{
		Port:            8800,
		ProfileIDs:      []string{"aaa", "bbb"},
		InitNetWorth:    500,
		TurnTime:        30 * time.Second,
		MaxBet:          50,
		DeckCount:       2,
		RoundResultWait: game.RoundResultWait,
		Tick:            time.Millisecond,
		RestartDelay:    time.Second,
		LogLevel:        "info",
		LogFormat:       "text",
		HistoryQueue:    history.DefaultQueueName,
	}
}

// Load overlays environment variables on Default. Unparseable values fall
// back to the default.
func Load() Config {
	c := Default()
	c.Port = GetEnvInt("THREECARD_PORT", c.Port)
	c.IPv6 = getEnvBool("THREECARD_IPV6", c.IPv6)
	if v := os.Getenv("THREECARD_PROFILES"); v != "" {
		c.ProfileIDs = splitList(v)
	}
	c.InitNetWorth = GetEnvInt("THREECARD_INIT_NET_WORTH", c.InitNetWorth)
	c.TurnTime = GetEnvDuration("THREECARD_TURN_TIME", c.TurnTime)
	c.MaxBet = GetEnvInt("THREECARD_MAX_BET", c.MaxBet)
	c.DeckCount = GetEnvInt("THREECARD_DECK_COUNT", c.DeckCount)
	c.RoundResultWait = GetEnvDuration("THREECARD_ROUND_RESULT_WAIT", c.RoundResultWait)
	c.Tick = GetEnvDuration("THREECARD_TICK", c.Tick)
	c.RestartDelay = GetEnvDuration("THREECARD_RESTART_DELAY", c.RestartDelay)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = GetEnv("LOG_FORMAT", c.LogFormat)
	c.RedisAddr = GetEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = GetEnvInt("REDIS_DB", c.RedisDB)
	c.HistoryQueue = GetEnv("HISTORY_QUEUE_NAME", c.HistoryQueue)
	return c
}

// Validate rejects tables the game cannot run, including decks too small to
// deal every seat.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	if len(c.ProfileIDs) < 2 {
		return fmt.Errorf("%w: need at least 2 profiles, got %d", ErrInvalid, len(c.ProfileIDs))
	}
	seen := make(map[string]bool, len(c.ProfileIDs))
	for _, id := range c.ProfileIDs {
		if id == "" {
			return fmt.Errorf("%w: empty profile id", ErrInvalid)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate profile id %q", ErrInvalid, id)
		}
		seen[id] = true
	}
	if c.DeckCount < 1 || c.DeckCount*cardsPerDeck < cards.HandSize*len(c.ProfileIDs) {
		return fmt.Errorf("%w: %d deck(s) cannot deal %d seats", ErrInvalid, c.DeckCount, len(c.ProfileIDs))
	}
	if c.InitNetWorth <= 0 {
		return fmt.Errorf("%w: initial net worth must be positive", ErrInvalid)
	}
	if c.MaxBet < game.Ante {
		return fmt.Errorf("%w: max bet %d below the ante", ErrInvalid, c.MaxBet)
	}
	if c.TurnTime <= 0 {
		return fmt.Errorf("%w: turn time must be positive", ErrInvalid)
	}
	if c.RoundResultWait <= 0 {
		return fmt.Errorf("%w: round result wait must be positive", ErrInvalid)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalid)
	}
	if c.RestartDelay <= 0 {
		return fmt.Errorf("%w: restart delay must be positive", ErrInvalid)
	}
	return nil
}

// GameSettings projects the match parameters.
func (c Config) GameSettings() game.Settings {
	return game.Settings{
		ProfileIDs:      append([]string{}, c.ProfileIDs...),
		InitNetWorth:    c.InitNetWorth,
		TurnTime:        c.TurnTime,
		MaxBet:          c.MaxBet,
		DeckCount:       c.DeckCount,
		RoundResultWait: c.RoundResultWait,
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetEnv retrieves an environment variable's value or returns a default.
func GetEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// GetEnvInt retrieves an integer value from an environment variable or returns a default value.
func GetEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

func getEnvBool(key string, defVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defVal
	}
	return b
}

// GetEnvDuration parses a Go duration such as "1500ms" or returns a default value.
func GetEnvDuration(key string, defVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defVal
	}
	return d
}
