package scanner

import (
	"context"
	"fmt"
	"net"
	"sort"

	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

const (
	statusListen       = "LISTEN"
	unknownProcessName = "unknown"
)

// SystemPortDetector はOSのソケット情報を使用したポート検出実装です。
// 使用中かどうかはバインドできるかどうかで判定し、TCPだけを対象にします。
type SystemPortDetector struct {
	logger logger.Logger

	listen      func(network, address string) (net.Listener, error)
	connections func(ctx context.Context) ([]psnet.ConnectionStat, error)
	processName func(ctx context.Context, pid int32) (string, error)
}

// NewSystemPortDetector は新しいSystemPortDetectorを作成します。
func NewSystemPortDetector(logger logger.Logger) *SystemPortDetector {
	return &SystemPortDetector{
		logger: logger,
		listen: net.Listen,
		connections: func(ctx context.Context) ([]psnet.ConnectionStat, error) {
			return psnet.ConnectionsWithContext(ctx, "inet")
		},
		processName: func(ctx context.Context, pid int32) (string, error) {
			p, err := process.NewProcessWithContext(ctx, pid)
			if err != nil {
				return "", err
			}
			return p.NameWithContext(ctx)
		},
	}
}

// DetectUsedPorts は待ち受け中のポートを昇順で返します。
func (s *SystemPortDetector) DetectUsedPorts(ctx context.Context) ([]int, error) {
	s.logger.Debug(ctx, "待ち受けソケットの取得を開始")

	conns, err := s.connections(ctx)
	if err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrProbeScanFailed,
			Message: "待ち受けソケットの取得に失敗しました",
			Cause:   err,
		}
	}

	seen := make(map[int]struct{})
	for _, conn := range conns {
		if conn.Status != statusListen {
			continue
		}
		seen[int(conn.Laddr.Port)] = struct{}{}
	}

	ports := make([]int, 0, len(seen))
	for port := range seen {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	s.logger.Debug(ctx, "待ち受けソケットの取得完了",
		types.Field{Key: "found_ports_count", Value: len(ports)})
	return ports, nil
}

// IsPortInUse は 0.0.0.0 へのバインドを試し、失敗した場合に使用中と判定します。
func (s *SystemPortDetector) IsPortInUse(ctx context.Context, port int) (bool, error) {
	if port < types.MinPort || port > types.MaxPort {
		return false, &errors.AppError{
			Code:    errors.ErrPortInvalid,
			Message: fmt.Sprintf("無効なポート番号です: %d", port),
			Fields:  map[string]interface{}{"port": port},
		}
	}

	l, err := s.listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		s.logger.Debug(ctx, "バインド失敗",
			types.Field{Key: "port", Value: port},
			types.Field{Key: "error", Value: err.Error()})
		return true, nil
	}
	_ = l.Close()
	return false, nil
}

// FindProcessOwner は port で待ち受けているプロセスを返します。
// PIDが取得できないソケットは所有者なしとして扱います。
func (s *SystemPortDetector) FindProcessOwner(ctx context.Context, port int) (*types.ProcessOwner, error) {
	conns, err := s.connections(ctx)
	if err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrProbeProcessUnavailable,
			Message: "プロセス情報を取得できませんでした",
			Cause:   err,
			Fields:  map[string]interface{}{"port": port},
		}
	}

	for _, conn := range conns {
		if conn.Status != statusListen || int(conn.Laddr.Port) != port {
			continue
		}
		if conn.Pid == 0 {
			return nil, nil
		}

		name, err := s.processName(ctx, conn.Pid)
		if err != nil || name == "" {
			// スキャン後に終了したか、権限がない
			name = unknownProcessName
		}
		return &types.ProcessOwner{PID: conn.Pid, Name: name}, nil
	}
	return nil, nil
}
