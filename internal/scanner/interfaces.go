// Package scanner は、ホストポートの使用状況と所有者の調査、空きポートの検索機能を提供します。
package scanner

import (
	"context"

	"github.com/harakeishi/composeports/pkg/types"
)

// PortDetector はシステムの使用中ポート検出を行うインターフェースです。
type PortDetector interface {
	DetectUsedPorts(ctx context.Context) ([]int, error)
	IsPortInUse(ctx context.Context, port int) (bool, error)
}

// OwnerFinder はポートを待ち受けているプロセスを調べるインターフェースです。
type OwnerFinder interface {
	FindProcessOwner(ctx context.Context, port int) (*types.ProcessOwner, error)
}

// ContainerFinder はポートを公開しているコンテナを調べるインターフェースです。
// コンテナ実行環境が使えない場合は nil と劣化エラーを返します。
type ContainerFinder interface {
	FindContainerOwner(ctx context.Context, port int) (*types.ContainerOwner, error)
}

// PortAllocator は利用可能ポートの検索を行うインターフェースです。
type PortAllocator interface {
	FindFreePort(ctx context.Context, portRange types.PortRange, exclude map[int]struct{}) (int, error)
}

// PortValidator はポート設定の妥当性検証を行うインターフェースです。
type PortValidator interface {
	ValidatePort(ctx context.Context, port int) error
	ValidatePortRange(ctx context.Context, portRange types.PortRange) error
}

// Prober はポート調査に必要な機能をまとめたインターフェースです。
type Prober interface {
	PortDetector
	OwnerFinder
	ContainerFinder
}
