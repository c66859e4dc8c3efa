package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/game"
)

type classEntry struct {
	Name           string          `json:"name" yaml:"name"`
	Bonus          game.Attributes `json:"bonus" yaml:"bonus"`
	SpecialAbility string          `json:"special_ability" yaml:"special_ability"`
}

type botEntry struct {
	ID             string               `json:"id" yaml:"id"`
	Name           string               `json:"name" yaml:"name"`
	Class          string               `json:"class" yaml:"class"`
	Level          int                  `json:"level" yaml:"level"`
	Difficulty     string               `json:"difficulty" yaml:"difficulty"`
	Predictability *float64             `json:"predictability" yaml:"predictability"`
	Attributes     game.Attributes      `json:"attributes" yaml:"attributes"`
	SpecialAbility string               `json:"special_ability" yaml:"special_ability"`
	Equipment      map[string]game.Item `json:"equipment" yaml:"equipment"`
}

type timingEntry struct {
	TurnTimeLimit   string `json:"turn_time_limit" yaml:"turn_time_limit"`
	SettleDelay     string `json:"settle_delay" yaml:"settle_delay"`
	ChallengeExpiry string `json:"challenge_expiry" yaml:"challenge_expiry"`
	GracePeriod     string `json:"grace_period" yaml:"grace_period"`
	WatchdogExtra   string `json:"watchdog_extra" yaml:"watchdog_extra"`
	BotAcceptMin    string `json:"bot_accept_min" yaml:"bot_accept_min"`
	BotAcceptMax    string `json:"bot_accept_max" yaml:"bot_accept_max"`
	WaitingTTL      string `json:"waiting_ttl" yaml:"waiting_ttl"`
}

type rawConfig struct {
	Server *struct {
		Address string `json:"address" yaml:"address"`
	} `json:"server" yaml:"server"`
	Timing    timingEntry  `json:"timing" yaml:"timing"`
	Rewards   *Rewards     `json:"rewards" yaml:"rewards"`
	ClassList []classEntry `json:"class_list" yaml:"class_list"`
	BotList   []botEntry   `json:"bot_list" yaml:"bot_list"`
}

// Timing holds every match duration.
type Timing struct {
	TurnTimeLimit   time.Duration
	SettleDelay     time.Duration
	ChallengeExpiry time.Duration
	GracePeriod     time.Duration
	WatchdogExtra   time.Duration
	BotAcceptMin    time.Duration
	BotAcceptMax    time.Duration
	WaitingTTL      time.Duration
}

// Rewards are the XP and gold amounts granted per outcome.
type Rewards struct {
	WinXP       int `json:"win_xp" yaml:"win_xp"`
	LossXP      int `json:"loss_xp" yaml:"loss_xp"`
	DrawXP      int `json:"draw_xp" yaml:"draw_xp"`
	WinGold     int `json:"win_gold" yaml:"win_gold"`
	LossGold    int `json:"loss_gold" yaml:"loss_gold"`
	DrawGold    int `json:"draw_gold" yaml:"draw_gold"`
	ForfeitGold int `json:"forfeit_gold" yaml:"forfeit_gold"`
}

// DefaultRewards apply when the config file has no rewards section.
var DefaultRewards = Rewards{WinXP: 50, LossXP: 10, DrawXP: 20, WinGold: 20, DrawGold: 5, ForfeitGold: 25}

// Class is a character class: attribute bonuses and the granted ability.
type Class struct {
	Name    string          `json:"name"`
	Bonus   game.Attributes `json:"bonus"`
	Ability game.Ability    `json:"specialAbility,omitempty"`
}

// LoadedConfig is the validated content of the config file.
type LoadedConfig struct {
	ServerAddress string
	Timing        Timing
	Rewards       Rewards
	Classes       []Class
	Bots          []bot.Profile
}

// ClassByName returns the class with the given name (case-insensitive).
func (c *LoadedConfig) ClassByName(name string) (Class, bool) {
	for _, cl := range c.Classes {
		if strings.EqualFold(cl.Name, strings.TrimSpace(name)) {
			return cl, true
		}
	}
	return Class{}, false
}

// LoadConfig reads the file at path. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON. It requires a non-empty
// `bot_list` (snake_case).
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &rc)
	default:
		err = json.Unmarshal(b, &rc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	timing, err := parseTiming(rc.Timing)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	classes, err := parseClasses(rc.ClassList)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	out := &LoadedConfig{
		ServerAddress: constants.DefaultAddress,
		Timing:        timing,
		Rewards:       DefaultRewards,
		Classes:       classes,
	}
	if rc.Server != nil && rc.Server.Address != "" {
		out.ServerAddress = rc.Server.Address
	}
	if rc.Rewards != nil {
		out.Rewards = *rc.Rewards
	}

	if len(rc.BotList) == 0 {
		return nil, fmt.Errorf("config file %s: bot_list is empty (provide 'bot_list' array)", path)
	}
	seen := make(map[string]struct{}, len(rc.BotList))
	for _, e := range rc.BotList {
		p, err := out.parseBot(e)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("config file %s: duplicate bot id '%s'", path, p.ID)
		}
		seen[p.ID] = struct{}{}
		out.Bots = append(out.Bots, p)
	}
	return out, nil
}

func parseTiming(t timingEntry) (Timing, error) {
	out := Timing{
		TurnTimeLimit:   constants.DefaultTurnTimeLimit,
		SettleDelay:     constants.DefaultSettleDelay,
		ChallengeExpiry: constants.DefaultChallengeExpiry,
		GracePeriod:     constants.DefaultGracePeriod,
		WatchdogExtra:   constants.DefaultWatchdogExtra,
		BotAcceptMin:    constants.DefaultBotAcceptMin,
		BotAcceptMax:    constants.DefaultBotAcceptMax,
		WaitingTTL:      constants.DefaultWaitingTTL,
	}
	fields := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"turn_time_limit", t.TurnTimeLimit, &out.TurnTimeLimit},
		{"settle_delay", t.SettleDelay, &out.SettleDelay},
		{"challenge_expiry", t.ChallengeExpiry, &out.ChallengeExpiry},
		{"grace_period", t.GracePeriod, &out.GracePeriod},
		{"watchdog_extra", t.WatchdogExtra, &out.WatchdogExtra},
		{"bot_accept_min", t.BotAcceptMin, &out.BotAcceptMin},
		{"bot_accept_max", t.BotAcceptMax, &out.BotAcceptMax},
		{"waiting_ttl", t.WaitingTTL, &out.WaitingTTL},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(f.raw))
		if err != nil {
			return Timing{}, fmt.Errorf("timing.%s: %w", f.key, err)
		}
		if d < 0 {
			return Timing{}, fmt.Errorf("timing.%s must not be negative", f.key)
		}
		*f.dst = d
	}
	if out.TurnTimeLimit == 0 || out.ChallengeExpiry == 0 || out.GracePeriod == 0 {
		return Timing{}, fmt.Errorf("timing: turn_time_limit, challenge_expiry and grace_period must be positive")
	}
	if out.BotAcceptMax < out.BotAcceptMin {
		return Timing{}, fmt.Errorf("timing: bot_accept_max is lower than bot_accept_min")
	}
	return out, nil
}

func parseClasses(entries []classEntry) ([]Class, error) {
	out := make([]Class, 0, len(entries))
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("class entry missing 'name'")
		}
		ln := strings.ToLower(name)
		if _, dup := names[ln]; dup {
			return nil, fmt.Errorf("duplicate class name '%s'", name)
		}
		names[ln] = struct{}{}
		ability, err := game.ParseAbility(e.SpecialAbility)
		if err != nil {
			return nil, fmt.Errorf("class '%s': %w", name, err)
		}
		out = append(out, Class{Name: name, Bonus: e.Bonus, Ability: ability})
	}
	return out, nil
}

func (c *LoadedConfig) parseBot(e botEntry) (bot.Profile, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return bot.Profile{}, fmt.Errorf("bot entry missing 'id'")
	}
	if !game.IsBotID(id) {
		id = game.BotIDPrefix + id
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return bot.Profile{}, fmt.Errorf("bot '%s' missing 'name'", id)
	}
	diff, err := bot.ParseDifficulty(e.Difficulty)
	if err != nil {
		return bot.Profile{}, fmt.Errorf("bot '%s': %w", id, err)
	}
	pred := 1.0
	if e.Predictability != nil {
		pred = *e.Predictability
	}
	if pred < 0 || pred > 1 {
		return bot.Profile{}, fmt.Errorf("bot '%s': predictability must be between 0 and 1", id)
	}
	ability, err := game.ParseAbility(e.SpecialAbility)
	if err != nil {
		return bot.Profile{}, fmt.Errorf("bot '%s': %w", id, err)
	}
	attrs := e.Attributes
	if e.Class != "" {
		cl, ok := c.ClassByName(e.Class)
		if !ok {
			return bot.Profile{}, fmt.Errorf("bot '%s': unknown class '%s'", id, e.Class)
		}
		attrs = attrs.Add(cl.Bonus)
		if ability == game.AbilityNone {
			ability = cl.Ability
		}
	}
	if attrs.Strength < 0 || attrs.Agility < 0 || attrs.Intuition < 0 || attrs.Endurance < 0 {
		return bot.Profile{}, fmt.Errorf("bot '%s': attributes must not be negative", id)
	}
	eq := make(game.Equipment, len(e.Equipment))
	for slot, item := range e.Equipment {
		eq[game.Slot(strings.ToLower(strings.TrimSpace(slot)))] = item
	}
	level := e.Level
	if level < 1 {
		level = 1
	}
	return bot.Profile{
		ID:          id,
		Name:        name,
		Class:       e.Class,
		Level:       level,
		Difficulty:  diff,
		Personality: bot.Personality{Predictability: pred},
		Attributes:  attrs,
		Ability:     ability,
		Equipment:   eq,
	}, nil
}
