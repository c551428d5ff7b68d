// Package resolver は、ポート衝突の検出と解決機能を提供します。
package resolver

import (
	"context"

	"github.com/harakeishi/composeports/pkg/types"
)

// ConflictDetector はポート指定に使用状況と所有者を書き込むインターフェースです。
type ConflictDetector interface {
	DetectConflicts(ctx context.Context, services []types.ServicePorts) ([]types.PortMapping, error)
}

// ConflictResolver は使用中のポート指定に新しいポートを割り当てるインターフェースです。
type ConflictResolver interface {
	Resolve(ctx context.Context, services []types.ServicePorts, opts ResolveOptions) (*types.ResolutionPlan, error)
}

// Prompter は対話モードでユーザーに新しいポートを尋ねるインターフェースです。
type Prompter interface {
	// Ask は mapping の代わりのポートを尋ね、入力された1行を返します。
	// 入力が終了した場合や中断された場合はエラーを返します。
	Ask(ctx context.Context, mapping types.PortMapping) (string, error)
	// Reject は入力を受け付けなかった理由を表示します。
	Reject(ctx context.Context, reason string)
}

// ResolveOptions は衝突解決の条件です。
type ResolveOptions struct {
	Mode  types.ResolutionMode
	Range types.PortRange
	// VariableFileKnown は変数経由のポートを書き戻す変数ファイルがあるかどうかです。
	VariableFileKnown bool
}
