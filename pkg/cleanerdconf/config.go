// Package cleanerdconf loads the daemon's own bootstrap configuration —
// which policy to run, cycle timing, the reclaim gate — from a YAML file
// layered through viper, validating the configured policy name against the
// registry eagerly so a typo fails at startup rather than mid-cycle.
package cleanerdconf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/nilfs-utils/segcleaner/pkg/policy"
)

// Config is the on-disk schema for a cleanerd deployment.
type Config struct {
	Policy                string        `mapstructure:"policy"`
	NSegmentsPerCleanMax  int           `mapstructure:"nsegments_per_clean_max"`
	CleaningInterval      time.Duration `mapstructure:"cleaning_interval"`
	ProtectionIntervalSec int64         `mapstructure:"protection_interval"`
	ProtectionWindow      time.Duration `mapstructure:"protection_window"`
	MinReclaimableBlocks  uint64        `mapstructure:"min_reclaimable_blocks"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy", "cost-benefit")
	v.SetDefault("nsegments_per_clean_max", 4)
	v.SetDefault("cleaning_interval", 30*time.Second)
	v.SetDefault("protection_interval", 2)
	v.SetDefault("protection_window", time.Hour)
	v.SetDefault("min_reclaimable_blocks", 0)
}

// Load reads path (any format viper supports, keyed off its extension) and
// validates policy against reg eagerly — an unknown policy name is a
// startup error, not something discovered on the first cycle.
func Load(path string, reg *policy.Registry) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cleanerdconf: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cleanerdconf: unmarshal %s: %w", path, err)
	}

	if _, err := reg.Lookup(cfg.Policy); err != nil {
		return nil, fmt.Errorf("cleanerdconf: %s: %w", path, err)
	}

	return &cfg, nil
}
