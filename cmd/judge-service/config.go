package main

import (
	"fmt"
	"os"
	"time"

	"codearena/internal/common/cache"
	"codearena/internal/common/db"
	"codearena/internal/judge/ratelimit"
	"codearena/internal/judge/sandbox"
	"codearena/internal/judge/sandbox/engine"
	"codearena/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultWorkRoot        = "/var/lib/codearena/runs"
	defaultMaxBodyBytes    = 256 << 10
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

// LimiterConfig holds judge admission settings. Backend "memory" keeps
// per-user windows in process; "redis" shares them across replicas.
type LimiterConfig struct {
	Backend            string        `yaml:"backend"`
	MaxRequests        int           `yaml:"maxRequests"`
	Window             time.Duration `yaml:"window"`
	Cooldown           time.Duration `yaml:"cooldown"`
	CooldownRetryAfter time.Duration `yaml:"cooldownRetryAfter"`
}

// ExecutorConfig holds execution slot pool and per-run limit settings.
type ExecutorConfig struct {
	WorkRoot       string        `yaml:"workRoot"`
	PoolSize       int           `yaml:"poolSize"`
	AcquireTimeout time.Duration `yaml:"acquireTimeout"`
	GraceMargin    time.Duration `yaml:"graceMargin"`
	MemoryLimitMB  int64         `yaml:"memoryLimitMB"`
	OutputLimitKB  int64         `yaml:"outputLimitKB"`
	PIDLimit       int64         `yaml:"pidLimit"`
}

// SandboxConfig holds sandbox engine settings.
type SandboxConfig struct {
	InterpreterPath      string   `yaml:"interpreterPath"`
	InterpreterArgs      []string `yaml:"interpreterArgs"`
	HelperPath           string   `yaml:"helperPath"`
	RootFS               string   `yaml:"rootfs"`
	SeccompProfile       string   `yaml:"seccompProfile"`
	CgroupRoot           string   `yaml:"cgroupRoot"`
	StdoutStderrMaxBytes int64    `yaml:"stdoutStderrMaxBytes"`
	EnableCgroup         bool     `yaml:"enableCgroup"`
	EnableNamespaces     bool     `yaml:"enableNamespaces"`
	EnableSeccomp        bool     `yaml:"enableSeccomp"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logger   logger.Config      `yaml:"logger"`
	Database db.MySQLConfig     `yaml:"database"`
	Redis    *cache.RedisConfig `yaml:"redis"`
	Limiter  LimiterConfig      `yaml:"limiter"`
	Executor ExecutorConfig     `yaml:"executor"`
	Sandbox  SandboxConfig      `yaml:"sandbox"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Limiter.Backend == "" {
		cfg.Limiter.Backend = "memory"
	}
	if cfg.Limiter.Backend != "memory" && cfg.Limiter.Backend != "redis" {
		return nil, fmt.Errorf("unknown limiter backend %q", cfg.Limiter.Backend)
	}
	if cfg.Limiter.Backend == "redis" && (cfg.Redis == nil || cfg.Redis.Addr == "") {
		return nil, fmt.Errorf("redis addr is required for the redis limiter backend")
	}
	if cfg.Executor.WorkRoot == "" {
		cfg.Executor.WorkRoot = defaultWorkRoot
	}
	return &cfg, nil
}

func (l LimiterConfig) toPolicy() ratelimit.Policy {
	policy := ratelimit.DefaultPolicy()
	if l.MaxRequests > 0 {
		policy.MaxRequests = l.MaxRequests
	}
	if l.Window > 0 {
		policy.Window = l.Window
	}
	if l.Cooldown > 0 {
		policy.Cooldown = l.Cooldown
	}
	if l.CooldownRetryAfter > 0 {
		policy.CooldownRetryAfter = l.CooldownRetryAfter
	}
	return policy
}

func (e ExecutorConfig) toExecutorConfig() sandbox.Config {
	return sandbox.Config{
		WorkRoot:       e.WorkRoot,
		PoolSize:       e.PoolSize,
		AcquireTimeout: e.AcquireTimeout,
		GraceMargin:    e.GraceMargin,
		MemoryLimitMB:  e.MemoryLimitMB,
		OutputLimitKB:  e.OutputLimitKB,
		PIDLimit:       e.PIDLimit,
	}
}

func (s SandboxConfig) toEngineConfig() engine.Config {
	return engine.Config{
		InterpreterPath:      s.InterpreterPath,
		InterpreterArgs:      s.InterpreterArgs,
		HelperPath:           s.HelperPath,
		RootFS:               s.RootFS,
		SeccompProfile:       s.SeccompProfile,
		CgroupRoot:           s.CgroupRoot,
		StdoutStderrMaxBytes: s.StdoutStderrMaxBytes,
		EnableCgroup:         s.EnableCgroup,
		EnableNamespaces:     s.EnableNamespaces,
		EnableSeccomp:        s.EnableSeccomp,
	}
}
