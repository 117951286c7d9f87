package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xplshn/semiscan/pkg/cli"
)

type Feature int

const (
	FeatDiscardComments Feature = iota
	FeatNewlines
	FeatForFold
	FeatCount
)

type Warning int

const (
	WarnUnterminated Warning = iota
	WarnUnbalancedFor
	WarnTruncatedSemi
	WarnDuplicateRule
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	// Extra registry entries applied on top of the default tables.
	Singles []rune
	Pairs   []string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatDiscardComments: {"discard-comments", false, "Drop comment tokens while collecting semi-expressions."},
		FeatNewlines:        {"newlines", true, "Insert a newline marker before lines starting with `using` or `#`."},
		FeatForFold:         {"for-fold", true, "Keep `for(...)` headers in a single semi-expression."},
	}

	warnings := map[Warning]Info{
		WarnUnterminated:  {"unterminated", true, "Warn when a comment or quoted literal runs to end of input."},
		WarnUnbalancedFor: {"unbalanced-for", true, "Warn when input ends inside a `for(...)` header."},
		WarnTruncatedSemi: {"truncated-semi", false, "Warn when trailing tokens without a terminator are dropped."},
		WarnDuplicateRule: {"duplicate-rule", false, "Warn when a special character rule is registered twice."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// AddSingles queues extra special single characters. Every rune of each
// argument is added, so "|!" registers both '|' and '!'.
func (c *Config) AddSingles(chars ...string) {
	for _, s := range chars {
		c.Singles = append(c.Singles, []rune(s)...)
	}
}

// AddPairs queues extra special character pairs.
func (c *Config) AddPairs(pairs ...string) error {
	for _, p := range pairs {
		if utf8.RuneCountInString(p) != 2 {
			return fmt.Errorf("invalid special pair '%s': want exactly two characters", p)
		}
		c.Pairs = append(c.Pairs, p)
	}
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(strings.TrimPrefix(trimmed, "W"), "no-")
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(strings.TrimPrefix(trimmed, "F"), "no-")
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
	}
}

// ProcessFlags applies -Wall / -Wno-all before any specific flag so that
// "-Wno-all -Wunterminated" leaves exactly one warning on.
func (c *Config) ProcessFlags(visitFlag func(fn func(name string))) {
	visitFlag(func(name string) {
		if name == "Wall" || name == "Wno-all" {
			c.applyFlag("-" + name)
		}
	})
	visitFlag(func(name string) {
		if name != "Wall" && name != "Wno-all" {
			c.applyFlag("-" + name)
		}
	})
}

// ProcessDirectiveFlags applies a space separated flag list such as
// "-Wno-unterminated -Ffor-fold".
func (c *Config) ProcessDirectiveFlags(flagStr string) {
	fields := strings.Fields(flagStr)
	c.ProcessFlags(func(fn func(string)) {
		for _, f := range fields {
			fn(strings.TrimPrefix(f, "-"))
		}
	})
}

// SetupFlagGroups registers -W<name>/-Wno-<name> and -F<name>/-Fno-<name>
// on fs. The returned entries are indexed by Warning and Feature.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description, Default: info.Enabled,
			Enabled: new(bool), Disabled: new(bool),
		}
	}

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description, Default: info.Enabled,
			Enabled: new(bool), Disabled: new(bool),
		}
	}

	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning flag", "Available Warning Flags:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable scanner features", "feature flag", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies the parsed group entries back into c. Disabling
// wins when both forms were given.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
