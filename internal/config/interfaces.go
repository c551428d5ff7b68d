// Package config は、composeports の設定管理機能を提供します。
package config

import (
	"context"

	"github.com/harakeishi/composeports/pkg/types"
)

// ConfigLoader は設定ファイルの読み込みを行うインターフェースです。
type ConfigLoader interface {
	Load(ctx context.Context, path string) (*types.AppConfig, error)
	LoadFromBytes(ctx context.Context, data []byte) (*types.AppConfig, error)
	LoadDefaults(ctx context.Context) (*types.AppConfig, error)
}
