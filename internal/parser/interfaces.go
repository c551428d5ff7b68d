// Package parser は、Docker Composeファイルの解析とポート指定の書き換え機能を提供します。
package parser

import (
	"context"

	"github.com/harakeishi/composeports/internal/variables"
	"github.com/harakeishi/composeports/pkg/types"
)

// ComposeParser はDocker Composeファイル解析を行うインターフェースです。
type ComposeParser interface {
	ParseComposeFile(ctx context.Context, path string) (*Document, error)
	ParseBytes(ctx context.Context, path string, data []byte) (*Document, error)
}

// PortExtractor はポートマッピング情報抽出を行うインターフェースです。
type PortExtractor interface {
	ExtractPortMappings(ctx context.Context, doc *Document, vars variables.Lookup) ([]types.ServicePorts, error)
}

// ComposeFileDetector はCompose ファイル自動検出を行うインターフェースです。
type ComposeFileDetector interface {
	DetectComposeFiles(ctx context.Context, directory string) ([]string, error)
	GetDefaultComposeFile(ctx context.Context, directory string) (string, error)
}
