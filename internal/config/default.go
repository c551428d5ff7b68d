package config

import (
	"time"

	"github.com/harakeishi/composeports/pkg/types"
)

// DefaultConfig はデフォルト設定を返します。
func DefaultConfig() *types.AppConfig {
	return &types.AppConfig{
		Port:   DefaultPortConfig(),
		File:   DefaultFileConfig(),
		Docker: DefaultDockerConfig(),
		Log:    DefaultLogConfig(),
	}
}

// DefaultPortConfig はデフォルトのポート設定を返します。
func DefaultPortConfig() types.PortConfig {
	return types.PortConfig{
		Range: types.PortRange{
			Start: 8000,
			End:   types.MaxPort,
		},
	}
}

// DefaultFileConfig はデフォルトのファイル設定を返します。
func DefaultFileConfig() types.FileConfig {
	return types.FileConfig{
		ComposeFile:    "docker-compose.yml",
		EnvFile:        "",
		DefaultEnvFile: ".env",
		BackupSuffix:   ".backup",
	}
}

// DefaultDockerConfig はデフォルトのDocker連携設定を返します。
func DefaultDockerConfig() types.DockerConfig {
	return types.DockerConfig{
		Lookup:  types.ContainerLookupAuto,
		Timeout: 5 * time.Second,
	}
}

// DefaultLogConfig はデフォルトのログ設定を返します。
func DefaultLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:  "warn",
		Format: "text",
		File:   "",
	}
}
