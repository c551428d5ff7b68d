// Package app は、1回の実行の流れ (読み込み、調査、解決、書き込み) をまとめるアプリケーション層を提供します。
package app

import (
	"context"

	"github.com/harakeishi/composeports/internal/file"
	"github.com/harakeishi/composeports/internal/parser"
	"github.com/harakeishi/composeports/internal/report"
	"github.com/harakeishi/composeports/internal/resolver"
	"github.com/harakeishi/composeports/internal/scanner"
	"github.com/harakeishi/composeports/pkg/types"
)

// Application はメインのアプリケーションサービスインターフェースです。
type Application interface {
	Run(ctx context.Context, opts Options) (*Result, error)
	Restore(ctx context.Context, opts RestoreOptions) (*RestoreResult, error)
}

// ComposeLoader はComposeファイルの読み込みとポート指定の抽出を行うインターフェースです。
type ComposeLoader interface {
	parser.ComposeParser
	parser.PortExtractor
}

// ServiceContainer は各サービスのコンポーネントを保持します。
type ServiceContainer struct {
	FileManager      file.FileManager
	BackupManager    file.BackupManager
	ComposeLoader    ComposeLoader
	ComposeDetector  parser.ComposeFileDetector
	ConflictDetector resolver.ConflictDetector
	ConflictResolver resolver.ConflictResolver
	Applier          *resolver.Applier
	PortValidator    scanner.PortValidator
}

// Options は1回の実行の条件です。
type Options struct {
	ComposeFile string
	// ComposeFileExplicit は --file で明示的に指定されたかどうかです。
	// 指定されていない場合、既定のファイルがなければ標準的なファイル名を探します。
	ComposeFileExplicit bool
	// EnvFile は明示的に指定された変数ファイルです。空の場合は DefaultEnvFile を探します。
	EnvFile        string
	DefaultEnvFile string
	Fix            bool
	Interactive    bool
	Backup         bool
	Range          types.PortRange
}

// FixRequested は衝突解決を行う指定かどうかを返します。
func (o Options) FixRequested() bool {
	return o.Fix || o.Interactive
}

// Mode は解決モードを返します。対話モードが優先されます。
func (o Options) Mode() types.ResolutionMode {
	if o.Interactive {
		return types.ResolutionModeInteractive
	}
	return types.ResolutionModeAutomatic
}

// Result は実行結果を表します。
type Result struct {
	Report *report.Report
	// Conflicts は解決前に検出した使用中のポート指定の数です。
	Conflicts int
	// Fixed は衝突を解決してファイルを書き換えたかどうかです。
	Fixed bool
}

// Blocking は終了コードを 1 にすべき未解決の衝突が残っているかどうかを返します。
// 衝突解決を指定した実行では常に false です。exitOnUsed は warnOnly より優先されます。
func (r *Result) Blocking(warnOnly, exitOnUsed bool) bool {
	if r.Conflicts == 0 || r.Report.FixRequested {
		return false
	}
	return exitOnUsed || !warnOnly
}

// RestoreOptions は restore コマンドの条件です。
type RestoreOptions struct {
	ComposeFile string
	EnvFile     string
}

// RestoreResult は restore コマンドの結果です。
type RestoreResult struct {
	Restored []string
}
