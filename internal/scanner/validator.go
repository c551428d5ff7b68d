package scanner

import (
	"context"
	"fmt"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

// PortValidatorImpl はポート検証の実装です。
type PortValidatorImpl struct {
	logger logger.Logger
}

// NewPortValidatorImpl は新しいPortValidatorImplを作成します。
func NewPortValidatorImpl(logger logger.Logger) *PortValidatorImpl {
	return &PortValidatorImpl{
		logger: logger,
	}
}

// ValidatePort は単一ポートの妥当性を検証します。
func (v *PortValidatorImpl) ValidatePort(ctx context.Context, port int) error {
	if port < types.MinPort || port > types.MaxPort {
		return &errors.AppError{
			Code:    errors.ErrPortInvalid,
			Message: fmt.Sprintf("無効なポート番号です: %d", port),
			Fields: map[string]interface{}{
				"port":     port,
				"min_port": types.MinPort,
				"max_port": types.MaxPort,
			},
		}
	}

	v.logger.Debug(ctx, "ポート検証成功", types.Field{Key: "port", Value: port})
	return nil
}

// ValidatePortRange はポート範囲の妥当性を検証します。開始ポートは終了ポートより小さくなければなりません。
func (v *PortValidatorImpl) ValidatePortRange(ctx context.Context, portRange types.PortRange) error {
	value := portRange.String()

	if portRange.Start < types.MinPort {
		return errors.NewPortRangeInvalidError(value, fmt.Sprintf("開始ポートは %d 以上である必要があります", types.MinPort))
	}
	if portRange.End > types.MaxPort {
		return errors.NewPortRangeInvalidError(value, fmt.Sprintf("終了ポートは %d 以下である必要があります", types.MaxPort))
	}
	if portRange.Start >= portRange.End {
		return errors.NewPortRangeInvalidError(value, "開始ポートは終了ポートより小さい必要があります")
	}

	v.logger.Debug(ctx, "ポート範囲検証成功",
		types.Field{Key: "start_port", Value: portRange.Start},
		types.Field{Key: "end_port", Value: portRange.End},
		types.Field{Key: "range_size", Value: portRange.Size()})

	return nil
}
