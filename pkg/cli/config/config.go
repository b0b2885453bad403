package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

const day = 24 * time.Hour

// AppConfig holds the --config flag. Without a file the defaults apply.
type AppConfig struct {
	path string
}

// Flags returns CLI flags for the application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Sources:     cli.EnvVars("PROCRISK_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configured file path
func (a *AppConfig) Path() string {
	return a.path
}

// Configure loads the file given by --config and converts it to the domain
// configuration
func (a *AppConfig) Configure() (*File, *domainConfig.RiskConfig, error) {
	if a.path == "" {
		return &File{}, domainConfig.DefaultRiskConfig(), nil
	}
	file, err := LoadAppConfiguration(a.path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.ToDomainRiskConfig(), nil
}

// File is the layout of the TOML configuration file
type File struct {
	ScoringPolicy        string     `toml:"scoring_policy"`
	EvaluationMaxAgeDays int        `toml:"evaluation_max_age_days"`
	ReviewMaxAgeDays     int        `toml:"review_max_age_days"`
	Sequence             Sequence   `toml:"sequence"`
	Activity             Activity   `toml:"activity"`
	Categories           []Category `toml:"category"`
	Units                []Unit     `toml:"unit"`
}

// Sequence holds the constants of the process sequencing heuristic
type Sequence struct {
	Base       int `toml:"base"`
	OutputStep int `toml:"output_step"`
	OutputCap  int `toml:"output_cap"`
}

// Activity holds the deadlines of follow-up activities in days
type Activity struct {
	VerifyDays     int    `toml:"verify_days"`
	EvaluateDays   int    `toml:"evaluate_days"`
	TreatDays      int    `toml:"treat_days"`
	SlackChannelID string `toml:"slack_channel_id"`
}

// Category represents a risk category configuration
type Category struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Validate checks if the Category is valid
func (c *Category) Validate() error {
	id := types.CategoryID(c.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid category ID")
	}
	if c.Name == "" {
		return goerr.Wrap(ErrMissingName, "category name is required", goerr.V(CategoryIDKey, c.ID))
	}
	return nil
}

// Unit represents a business unit configuration
type Unit struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Validate checks if the Unit is valid
func (u *Unit) Validate() error {
	id := types.UnitID(u.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid unit ID")
	}
	if u.Name == "" {
		return goerr.Wrap(ErrMissingName, "unit name is required", goerr.V(UnitIDKey, u.ID))
	}
	return nil
}

// Validate checks if the File is valid
func (f *File) Validate() error {
	if f.ScoringPolicy != "" {
		if _, err := types.ParseScoringPolicy(f.ScoringPolicy); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid scoring policy", goerr.V("scoring_policy", f.ScoringPolicy))
		}
	}

	for name, days := range map[string]int{
		"evaluation_max_age_days": f.EvaluationMaxAgeDays,
		"review_max_age_days":     f.ReviewMaxAgeDays,
		"activity.verify_days":    f.Activity.VerifyDays,
		"activity.evaluate_days":  f.Activity.EvaluateDays,
		"activity.treat_days":     f.Activity.TreatDays,
	} {
		if days < 0 {
			return goerr.Wrap(ErrInvalidDuration, "invalid duration", goerr.V("key", name), goerr.V("days", days))
		}
	}
	if f.Sequence.Base < 0 || f.Sequence.OutputStep < 0 || f.Sequence.OutputCap < 0 {
		return goerr.Wrap(ErrInvalidConfig, "sequence constants must not be negative")
	}

	categoryIDs := make(map[string]bool)
	for _, cat := range f.Categories {
		if err := cat.Validate(); err != nil {
			return goerr.Wrap(err, "invalid category")
		}
		if categoryIDs[cat.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate category ID", goerr.V(CategoryIDKey, cat.ID))
		}
		categoryIDs[cat.ID] = true
	}

	unitIDs := make(map[string]bool)
	for _, unit := range f.Units {
		if err := unit.Validate(); err != nil {
			return goerr.Wrap(err, "invalid unit")
		}
		if unitIDs[unit.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate unit ID", goerr.V(UnitIDKey, unit.ID))
		}
		unitIDs[unit.ID] = true
	}

	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*File, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}

// ToDomainRiskConfig converts the file to the domain RiskConfig. Unset values
// take their defaults.
func (f *File) ToDomainRiskConfig() *domainConfig.RiskConfig {
	var categories []domainConfig.Category
	for _, cat := range f.Categories {
		categories = append(categories, domainConfig.Category{
			ID:          cat.ID,
			Name:        cat.Name,
			Description: cat.Description,
		})
	}

	var units []domainConfig.Unit
	for _, unit := range f.Units {
		units = append(units, domainConfig.Unit{
			ID:   unit.ID,
			Name: unit.Name,
		})
	}

	cfg := &domainConfig.RiskConfig{
		Categories:       categories,
		Units:            units,
		ScoringPolicy:    types.ScoringPolicy(f.ScoringPolicy),
		EvaluationMaxAge: time.Duration(f.EvaluationMaxAgeDays) * day,
		ReviewMaxAge:     time.Duration(f.ReviewMaxAgeDays) * day,
		Sequence: domainConfig.SequenceConfig{
			Base:       f.Sequence.Base,
			OutputStep: f.Sequence.OutputStep,
			OutputCap:  f.Sequence.OutputCap,
		},
		Activity: domainConfig.ActivityConfig{
			VerifyDeadline:   time.Duration(f.Activity.VerifyDays) * day,
			EvaluateDeadline: time.Duration(f.Activity.EvaluateDays) * day,
			TreatDeadline:    time.Duration(f.Activity.TreatDays) * day,
			SlackChannelID:   f.Activity.SlackChannelID,
		},
	}
	return cfg.WithDefaults()
}
