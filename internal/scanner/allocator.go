package scanner

import (
	"context"
	"math/rand"
	"time"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

// DefaultRandomAttempts は順次検索に切り替えるまでの乱択回数です。
const DefaultRandomAttempts = 1000

// RandomPortAllocator は乱択の後に昇順検索を行うポート割り当て実装です。
type RandomPortAllocator struct {
	detector PortDetector
	rng      *rand.Rand
	attempts int
	logger   logger.Logger
}

// NewRandomPortAllocator は新しいRandomPortAllocatorを作成します。rng が nil の場合は現在時刻で初期化します。
func NewRandomPortAllocator(detector PortDetector, rng *rand.Rand, logger logger.Logger) *RandomPortAllocator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomPortAllocator{
		detector: detector,
		rng:      rng,
		attempts: DefaultRandomAttempts,
		logger:   logger,
	}
}

// FindFreePort は portRange 内で、待ち受け中でも exclude にも含まれず、バインドできるポートを返します。
func (a *RandomPortAllocator) FindFreePort(ctx context.Context, portRange types.PortRange, exclude map[int]struct{}) (int, error) {
	size := portRange.Size()
	if size == 0 {
		return 0, errors.NewNoFreePortError(portRange.Start, portRange.End)
	}

	blocked := make(map[int]struct{}, len(exclude))
	for port := range exclude {
		blocked[port] = struct{}{}
	}
	used, err := a.detector.DetectUsedPorts(ctx)
	if err != nil {
		// バインド検査だけで判定を続ける
		a.logger.Warn(ctx, "使用中ポートの取得に失敗しました",
			types.Field{Key: "error", Value: err.Error()})
	}
	for _, port := range used {
		blocked[port] = struct{}{}
	}

	drawn := make(map[int]struct{})
	for i := 0; i < a.attempts && len(drawn) < size; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		port := portRange.Start + a.rng.Intn(size)
		if _, ok := drawn[port]; ok {
			continue
		}
		drawn[port] = struct{}{}
		if a.usable(ctx, port, blocked) {
			a.logger.Debug(ctx, "ポート割り当て成功",
				types.Field{Key: "allocated_port", Value: port},
				types.Field{Key: "strategy", Value: "random"})
			return port, nil
		}
	}

	for port := portRange.Start; port <= portRange.End; port++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, ok := drawn[port]; ok {
			continue
		}
		if a.usable(ctx, port, blocked) {
			a.logger.Debug(ctx, "ポート割り当て成功",
				types.Field{Key: "allocated_port", Value: port},
				types.Field{Key: "strategy", Value: "sequential"})
			return port, nil
		}
	}

	return 0, errors.NewNoFreePortError(portRange.Start, portRange.End)
}

func (a *RandomPortAllocator) usable(ctx context.Context, port int, blocked map[int]struct{}) bool {
	if _, ok := blocked[port]; ok {
		return false
	}
	inUse, err := a.detector.IsPortInUse(ctx, port)
	return err == nil && !inUse
}
