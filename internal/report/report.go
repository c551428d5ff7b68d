// Package report は、解析結果と衝突解決結果の出力を提供します。
package report

import (
	"fmt"
	"io"

	"github.com/harakeishi/composeports/pkg/types"
)

// Format は出力形式を表します。
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Environment は変数ファイルの利用状況です。
type Environment struct {
	UsesEnvVars     bool
	EnvFilePath     string
	EnvVarsDetected []string
	EnvVarsLoaded   int
	EnvVarsMissing  []string
}

// Changes は衝突解決で行った変更です。
type Changes struct {
	Plan         *types.ResolutionPlan
	UpdatedFiles []string
	Backups      []string
}

// Report は1回の実行結果です。
// Services は最終的な状態 (修正した場合は修正後に調べ直した状態) を表します。
type Report struct {
	ComposeFile string
	Services    []types.ServicePorts
	Environment Environment
	// FixRequested は --fix または --fix-interactive が指定されたかどうかです。
	FixRequested bool
	// Changes は衝突解決を行った場合だけ設定されます。
	Changes *Changes
}

// InUseCount は使用中のポート指定の数を返します。
func (r *Report) InUseCount() int {
	return len(types.InUseMappings(r.Services))
}

// Presenter はレポートを出力するインターフェースです。
type Presenter interface {
	Present(w io.Writer, r *Report) error
}

// NewPresenter は形式に対応するPresenterを返します。
func NewPresenter(format Format) (Presenter, error) {
	switch format {
	case FormatText, "":
		return NewTextPresenter(), nil
	case FormatJSON:
		return NewJSONPresenter(), nil
	default:
		return nil, fmt.Errorf("未対応の出力形式です: %s", format)
	}
}
