package config

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/viper"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/pkg/types"
)

// EnvPrefix は設定を上書きする環境変数の接頭辞です。
const EnvPrefix = "COMPOSEPORTS"

// ViperConfigLoader は viper を使った設定ローダーです。
// 優先順位は 環境変数 > 設定ファイル > デフォルト値 です。
type ViperConfigLoader struct {
	v *viper.Viper
}

// NewViperConfigLoader は新しいローダーを作成します。
func NewViperConfigLoader(v *viper.Viper) *ViperConfigLoader {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfigLoader{v: v}
}

// Load は設定ファイルを読み込みます。path が空の場合は $HOME とカレントディレクトリの
// .composeports.yaml を探し、見つからなければデフォルト値を使います。
func (l *ViperConfigLoader) Load(ctx context.Context, path string) (*types.AppConfig, error) {
	l.prepare()

	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName(".composeports")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath("$HOME")
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); path != "" || !notFound {
			return nil, &errors.AppError{
				Code:    errors.ErrConfigLoadFailed,
				Message: "設定ファイルの読み込みに失敗しました",
				Cause:   err,
				Fields:  map[string]interface{}{"path": path},
			}
		}
	}

	return l.unmarshal()
}

// LoadFromBytes はYAMLバイト列から設定を読み込みます。
func (l *ViperConfigLoader) LoadFromBytes(ctx context.Context, data []byte) (*types.AppConfig, error) {
	l.prepare()
	l.v.SetConfigType("yaml")
	if err := l.v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrConfigLoadFailed,
			Message: "設定の解析に失敗しました",
			Cause:   err,
		}
	}
	return l.unmarshal()
}

// LoadDefaults は環境変数だけを反映したデフォルト設定を返します。
func (l *ViperConfigLoader) LoadDefaults(ctx context.Context) (*types.AppConfig, error) {
	l.prepare()
	return l.unmarshal()
}

// ConfigFileUsed は読み込んだ設定ファイルのパスを返します。
func (l *ViperConfigLoader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *ViperConfigLoader) prepare() {
	defaults := DefaultConfig()
	l.v.SetDefault("port.range.start", defaults.Port.Range.Start)
	l.v.SetDefault("port.range.end", defaults.Port.Range.End)
	l.v.SetDefault("file.compose_file", defaults.File.ComposeFile)
	l.v.SetDefault("file.env_file", defaults.File.EnvFile)
	l.v.SetDefault("file.default_env_file", defaults.File.DefaultEnvFile)
	l.v.SetDefault("file.backup_suffix", defaults.File.BackupSuffix)
	l.v.SetDefault("docker.lookup", string(defaults.Docker.Lookup))
	l.v.SetDefault("docker.timeout", defaults.Docker.Timeout)
	l.v.SetDefault("log.level", defaults.Log.Level)
	l.v.SetDefault("log.format", defaults.Log.Format)
	l.v.SetDefault("log.file", defaults.Log.File)

	// 環境変数の自動バインド
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *ViperConfigLoader) unmarshal() (*types.AppConfig, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrConfigLoadFailed,
			Message: "設定の変換に失敗しました",
			Cause:   err,
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrConfigInvalid,
			Message: "設定が無効です",
			Cause:   err,
		}
	}
	return cfg, nil
}
