package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	OutputDir  string
	DBPath     string
	ConfigPath string // Path to the YAML config file
}

// SiteConfig holds all target-site specific settings (from YAML)
type SiteConfig struct {
	DashboardURL string    `yaml:"dashboard_url"`
	TableURL     string    `yaml:"table_url"` // direct table page, for http mode
	FetchMode    string    `yaml:"fetch_mode"` // "browser" (default) or "http"
	Selectors    Selectors `yaml:"selectors"`
	Years        []string  `yaml:"years"`    // empty = every year the site offers
	Location     Location  `yaml:"location"` // fixed location context for http mode
}

// Location labels tables fetched in http mode, where the page carries no
// dropdown context.
type Location struct {
	Year     string `yaml:"year"`
	State    string `yaml:"state"`
	District string `yaml:"district"`
	Block    string `yaml:"block"`
}

type Selectors struct {
	YearDropdown     string `yaml:"year_dropdown"`
	StateDropdown    string `yaml:"state_dropdown"`
	DistrictDropdown string `yaml:"district_dropdown"`
	BlockDropdown    string `yaml:"block_dropdown"`
	MacroTab         string `yaml:"macro_tab"`
	MicroTab         string `yaml:"micro_tab"`
	MacroTableView   string `yaml:"macro_table_view"`
	MicroTableView   string `yaml:"micro_table_view"`
	MacroTable       string `yaml:"macro_table"`
	MicroTable       string `yaml:"micro_table"`
}

// GetAppConfig reads basic infrastructure settings from environment variables.
func GetAppConfig() (AppConfig, error) {
	outputDir := os.Getenv("OUTPUT_DIR")
	dbPath := os.Getenv("DB_PATH")
	configPath := os.Getenv("CONFIG_PATH")

	// Set defaults if not provided
	if outputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return AppConfig{}, fmt.Errorf("cannot resolve home directory for default output dir: %w", err)
		}
		outputDir = filepath.Join(home, "Desktop", "SoilHealthData")
	}
	if dbPath == "" {
		dbPath = filepath.Join(outputDir, "soilhealth.db")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	return AppConfig{
		OutputDir:  outputDir,
		DBPath:     dbPath,
		ConfigPath: configPath,
	}, nil
}

// LoadSiteConfig reads the YAML file that configures the scraper.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *SiteConfig) applyDefaults() {
	if c.DashboardURL == "" {
		c.DashboardURL = "https://soilhealth.dac.gov.in/piechart"
	}
	if c.FetchMode == "" {
		c.FetchMode = "browser"
	}
	s := &c.Selectors
	if s.YearDropdown == "" {
		s.YearDropdown = "#ddlYear"
	}
	if s.StateDropdown == "" {
		s.StateDropdown = "#ddlState"
	}
	if s.DistrictDropdown == "" {
		s.DistrictDropdown = "#ddlDistrict"
	}
	if s.BlockDropdown == "" {
		s.BlockDropdown = "#ddlBlock"
	}
	if s.MacroTab == "" {
		s.MacroTab = `a[href="#MacroNutrient"]`
	}
	if s.MicroTab == "" {
		s.MicroTab = `a[href="#MicroNutrient"]`
	}
	if s.MacroTableView == "" {
		s.MacroTableView = "#MacroNutrient a.table-view"
	}
	if s.MicroTableView == "" {
		s.MicroTableView = "#MicroNutrient a.table-view"
	}
	if s.MacroTable == "" {
		s.MacroTable = "#gridMacroNutrient"
	}
	if s.MicroTable == "" {
		s.MicroTable = "#gridMicroNutrient"
	}
}
