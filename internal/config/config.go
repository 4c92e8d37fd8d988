package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/daydemir/postdoc/internal/types"
)

// EnvPrefix is prepended to every environment override (POSTDOC_LLM_MODEL, ...)
const EnvPrefix = "POSTDOC"

// Config represents the postdoc configuration
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Claude   ClaudeConfig   `mapstructure:"claude"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Examples ExamplesConfig `mapstructure:"examples"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Log      LogConfig      `mapstructure:"log"`
}

// LLMConfig contains LLM backend settings
type LLMConfig struct {
	Backend          string  `mapstructure:"backend"`
	Model            string  `mapstructure:"model"`
	Temperature      float32 `mapstructure:"temperature"`
	BaseURL          string  `mapstructure:"base_url"`
	APIKeyEnv        string  `mapstructure:"api_key_env"`
	StructuredOutput bool    `mapstructure:"structured_output"`
}

// ClaudeConfig contains Claude-specific settings
type ClaudeConfig struct {
	Binary string `mapstructure:"binary"`
}

// WorkflowConfig contains phase controller settings
type WorkflowConfig struct {
	PlanningContext int `mapstructure:"planning_context"`
	CodegenContext  int `mapstructure:"codegen_context"`
	MaxIterations   int `mapstructure:"max_iterations"` // 0 = unlimited
}

// ExamplesConfig controls example injection into the code generation prompt
type ExamplesConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Dir      string `mapstructure:"dir"`
	MaxChars int    `mapstructure:"max_chars"`
}

// VerifyConfig contains verification pipeline settings
type VerifyConfig struct {
	Python        string        `mapstructure:"python"`
	ImportTimeout time.Duration `mapstructure:"import_timeout"`
	ExecTimeout   time.Duration `mapstructure:"exec_timeout"`
	SyntaxMode    string        `mapstructure:"syntax_mode"`
	Languages     []string      `mapstructure:"languages"`
}

// SessionsConfig selects the session store
type SessionsConfig struct {
	Backend    string        `mapstructure:"backend"`
	Path       string        `mapstructure:"path"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// legacyEnv maps keys to the environment names older deployments used
var legacyEnv = map[string]string{
	"examples.dir":       "HEP_EXAMPLES_DIR",
	"examples.max_chars": "HEP_EXAMPLES_MAX_CHARS",
}

// Load reads the config for a workspace. An explicit path wins over
// <workspace>/.postdoc/config.yaml. Environment overrides apply even when no
// file exists.
func Load(workspaceDir, explicitPath string) (*Config, error) {
	v := New()

	configPath := explicitPath
	if configPath == "" && workspaceDir != "" {
		configPath = filepath.Join(workspaceDir, ".postdoc", "config.yaml")
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if explicitPath != "" {
			return nil, fmt.Errorf("config file not found: %s", explicitPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyLegacyEnv(&cfg)
	// Apply defaults for missing values
	applyDefaults(&cfg)
	resolvePaths(&cfg, workspaceDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New returns a viper instance carrying every default and env binding
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		v.BindEnv(key, envName, legacy)
	}
	return v
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Backend:          "openai",
			Model:            "gpt-4o",
			Temperature:      0.2,
			APIKeyEnv:        "OPENAI_API_KEY",
			StructuredOutput: false,
		},
		Claude: ClaudeConfig{
			Binary: "claude",
		},
		Workflow: WorkflowConfig{
			PlanningContext: 12,
			CodegenContext:  10,
			MaxIterations:   0,
		},
		Examples: ExamplesConfig{
			Enabled:  true,
			Dir:      "examples/hep-programming-hints",
			MaxChars: 20000,
		},
		Verify: VerifyConfig{
			Python:        "python3",
			ImportTimeout: 10 * time.Second,
			ExecTimeout:   30 * time.Second,
			SyntaxMode:    "auto",
			Languages:     []string{"python", "py", "python3"},
		},
		Sessions: SessionsConfig{
			Backend: "memory",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("llm.backend", d.LLM.Backend)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key_env", d.LLM.APIKeyEnv)
	v.SetDefault("llm.structured_output", d.LLM.StructuredOutput)
	v.SetDefault("claude.binary", d.Claude.Binary)
	v.SetDefault("workflow.planning_context", d.Workflow.PlanningContext)
	v.SetDefault("workflow.codegen_context", d.Workflow.CodegenContext)
	v.SetDefault("workflow.max_iterations", d.Workflow.MaxIterations)
	v.SetDefault("examples.enabled", d.Examples.Enabled)
	v.SetDefault("examples.dir", d.Examples.Dir)
	v.SetDefault("examples.max_chars", d.Examples.MaxChars)
	v.SetDefault("verify.python", d.Verify.Python)
	v.SetDefault("verify.import_timeout", d.Verify.ImportTimeout)
	v.SetDefault("verify.exec_timeout", d.Verify.ExecTimeout)
	v.SetDefault("verify.syntax_mode", d.Verify.SyntaxMode)
	v.SetDefault("verify.languages", d.Verify.Languages)
	v.SetDefault("sessions.backend", d.Sessions.Backend)
	v.SetDefault("sessions.path", d.Sessions.Path)
	v.SetDefault("sessions.ttl", d.Sessions.TTL)
	v.SetDefault("sessions.max_entries", d.Sessions.MaxEntries)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// applyLegacyEnv honors HEP_USE_EXAMPLES, where anything but an explicit
// "off" value enables examples
func applyLegacyEnv(cfg *Config) {
	if _, set := os.LookupEnv(EnvPrefix + "_EXAMPLES_ENABLED"); set {
		return
	}
	if val, set := os.LookupEnv("HEP_USE_EXAMPLES"); set {
		switch val {
		case "0", "false", "False", "no", "NO":
			cfg.Examples.Enabled = false
		default:
			cfg.Examples.Enabled = true
		}
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.LLM.Backend == "" {
		cfg.LLM.Backend = defaults.LLM.Backend
	}
	if cfg.LLM.Model == "" && cfg.LLM.Backend == "openai" {
		cfg.LLM.Model = defaults.LLM.Model
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = defaults.LLM.APIKeyEnv
	}
	if cfg.Claude.Binary == "" {
		cfg.Claude.Binary = defaults.Claude.Binary
	}
	if cfg.Workflow.PlanningContext == 0 {
		cfg.Workflow.PlanningContext = defaults.Workflow.PlanningContext
	}
	if cfg.Workflow.CodegenContext == 0 {
		cfg.Workflow.CodegenContext = defaults.Workflow.CodegenContext
	}
	if cfg.Examples.Dir == "" {
		cfg.Examples.Dir = defaults.Examples.Dir
	}
	if cfg.Examples.MaxChars == 0 {
		cfg.Examples.MaxChars = defaults.Examples.MaxChars
	}
	if cfg.Verify.Python == "" {
		cfg.Verify.Python = defaults.Verify.Python
	}
	if cfg.Verify.ImportTimeout == 0 {
		cfg.Verify.ImportTimeout = defaults.Verify.ImportTimeout
	}
	if cfg.Verify.ExecTimeout == 0 {
		cfg.Verify.ExecTimeout = defaults.Verify.ExecTimeout
	}
	if cfg.Verify.SyntaxMode == "" {
		cfg.Verify.SyntaxMode = defaults.Verify.SyntaxMode
	}
	if len(cfg.Verify.Languages) == 0 {
		cfg.Verify.Languages = defaults.Verify.Languages
	}
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = defaults.Sessions.Backend
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// resolvePaths fills workspace-relative defaults for file-backed features
func resolvePaths(cfg *Config, workspaceDir string) {
	if workspaceDir == "" {
		return
	}
	if cfg.Sessions.Path == "" {
		switch cfg.Sessions.Backend {
		case "file":
			cfg.Sessions.Path = filepath.Join(workspaceDir, ".postdoc", "sessions")
		case "sqlite":
			cfg.Sessions.Path = filepath.Join(workspaceDir, ".postdoc", "sessions.db")
		}
	} else if !filepath.IsAbs(cfg.Sessions.Path) {
		cfg.Sessions.Path = filepath.Join(workspaceDir, cfg.Sessions.Path)
	}
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(workspaceDir, cfg.Log.File)
	}
}

// Validate checks enumerations and ranges, reporting every problem at once
func (c *Config) Validate() error {
	var errs types.ValidationErrors

	switch c.LLM.Backend {
	case "openai", "claude":
	default:
		errs.Add("llm.backend", "one of: openai, claude", c.LLM.Backend, "set llm.backend to openai or claude")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs.Add("llm.temperature", "a number between 0 and 2", c.LLM.Temperature, "lower llm.temperature")
	}
	if c.Workflow.PlanningContext < 0 {
		errs.Add("workflow.planning_context", "a positive message count", c.Workflow.PlanningContext, "set a positive value")
	}
	if c.Workflow.CodegenContext < 0 {
		errs.Add("workflow.codegen_context", "a positive message count", c.Workflow.CodegenContext, "set a positive value")
	}
	if c.Workflow.MaxIterations < 0 {
		errs.Add("workflow.max_iterations", "0 (unlimited) or a positive count", c.Workflow.MaxIterations, "use 0 to disable the cap")
	}
	if c.Examples.MaxChars < 0 {
		errs.Add("examples.max_chars", "a positive character budget", c.Examples.MaxChars, "set a positive value")
	}
	if c.Verify.ImportTimeout < 0 {
		errs.Add("verify.import_timeout", "a positive duration", c.Verify.ImportTimeout.String(), "use a value like 10s")
	}
	switch c.Verify.SyntaxMode {
	case "auto", "interpreter", "treesitter":
	default:
		errs.Add("verify.syntax_mode", "one of: auto, interpreter, treesitter", c.Verify.SyntaxMode, "pick a supported syntax checker")
	}
	switch c.Sessions.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Sessions.Path == "" {
			errs.Add("sessions.path", "a directory or database path", c.Sessions.Path, "set sessions.path or run inside a workspace")
		}
	default:
		errs.Add("sessions.backend", "one of: memory, file, sqlite", c.Sessions.Backend, "pick a supported session store")
	}
	if c.Sessions.MaxEntries < 0 {
		errs.Add("sessions.max_entries", "0 (unbounded) or a positive count", c.Sessions.MaxEntries, "use 0 to disable the cap")
	}
	return errs.Err()
}

// APIKey reads the API key from the configured environment variable
func (c *Config) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}
