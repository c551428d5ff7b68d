package types

import (
	"fmt"
	"time"
)

// Config は全体設定を表すインターフェースです。
type Config interface {
	GetPort() PortConfig
	GetFile() FileConfig
	GetDocker() DockerConfig
	GetLog() LogConfig
	Validate() error
}

// PortConfig はポート関連設定を表します。
type PortConfig struct {
	Range PortRange `yaml:"range" json:"range" mapstructure:"range"`
}

// FileConfig はファイル関連設定を表します。
type FileConfig struct {
	ComposeFile    string `yaml:"compose_file" json:"compose_file" mapstructure:"compose_file"`
	EnvFile        string `yaml:"env_file" json:"env_file" mapstructure:"env_file"`
	DefaultEnvFile string `yaml:"default_env_file" json:"default_env_file" mapstructure:"default_env_file"`
	BackupSuffix   string `yaml:"backup_suffix" json:"backup_suffix" mapstructure:"backup_suffix"`
}

// ContainerLookup はコンテナ所有者の取得方法を表します。
type ContainerLookup string

const (
	ContainerLookupAuto ContainerLookup = "auto"
	ContainerLookupAPI  ContainerLookup = "api"
	ContainerLookupCLI  ContainerLookup = "cli"
	ContainerLookupNone ContainerLookup = "none"
)

// DockerConfig はDocker連携の設定を表します。
type DockerConfig struct {
	Lookup  ContainerLookup `yaml:"lookup" json:"lookup" mapstructure:"lookup"`
	Timeout time.Duration   `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// LogConfig はログ関連設定を表します。
type LogConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	File   string `yaml:"file" json:"file" mapstructure:"file"`
}

// AppConfig は具体的な設定実装です。
type AppConfig struct {
	Port   PortConfig   `yaml:"port" json:"port" mapstructure:"port"`
	File   FileConfig   `yaml:"file" json:"file" mapstructure:"file"`
	Docker DockerConfig `yaml:"docker" json:"docker" mapstructure:"docker"`
	Log    LogConfig    `yaml:"log" json:"log" mapstructure:"log"`
}

// GetPort はポート設定を返します。
func (c *AppConfig) GetPort() PortConfig {
	return c.Port
}

// GetFile はファイル設定を返します。
func (c *AppConfig) GetFile() FileConfig {
	return c.File
}

// GetDocker はDocker連携設定を返します。
func (c *AppConfig) GetDocker() DockerConfig {
	return c.Docker
}

// GetLog はログ設定を返します。
func (c *AppConfig) GetLog() LogConfig {
	return c.Log
}

// Validate は設定の妥当性を検証します。
func (c *AppConfig) Validate() error {
	r := c.Port.Range
	if r.Start < MinPort || r.End > MaxPort || r.Start >= r.End {
		return fmt.Errorf("port.range が無効です: %s", r)
	}

	switch c.Docker.Lookup {
	case ContainerLookupAuto, ContainerLookupAPI, ContainerLookupCLI, ContainerLookupNone:
	default:
		return fmt.Errorf("docker.lookup が無効です: %q", c.Docker.Lookup)
	}

	switch LogLevel(c.Log.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("log.level が無効です: %q", c.Log.Level)
	}

	if c.File.ComposeFile == "" {
		return fmt.Errorf("file.compose_file が空です")
	}
	return nil
}
