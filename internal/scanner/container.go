package scanner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

const shortIDLength = 12

// containerLister はコンテナ一覧の取得に必要なDocker APIです。
type containerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// DockerAPIContainerFinder はDocker Engine APIでコンテナを調べる実装です。
// クライアントは最初の呼び出しで作成します。
type DockerAPIContainerFinder struct {
	timeout time.Duration
	logger  logger.Logger

	once      sync.Once
	lister    containerLister
	clientErr error
}

// NewDockerAPIContainerFinder は新しいDockerAPIContainerFinderを作成します。
func NewDockerAPIContainerFinder(timeout time.Duration, logger logger.Logger) *DockerAPIContainerFinder {
	return &DockerAPIContainerFinder{
		timeout: timeout,
		logger:  logger,
	}
}

func newDockerAPIContainerFinderWithLister(lister containerLister, logger logger.Logger) *DockerAPIContainerFinder {
	f := &DockerAPIContainerFinder{lister: lister, logger: logger}
	f.once.Do(func() {})
	return f
}

func (f *DockerAPIContainerFinder) connect(ctx context.Context) (containerLister, error) {
	f.once.Do(func() {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			f.clientErr = err
			return
		}
		if _, err := cli.Ping(ctx); err != nil {
			_ = cli.Close()
			f.clientErr = err
			return
		}
		f.lister = cli
	})
	return f.lister, f.clientErr
}

// FindContainerOwner は実行中のコンテナから port を公開しているものを探します。
func (f *DockerAPIContainerFinder) FindContainerOwner(ctx context.Context, port int) (*types.ContainerOwner, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	lister, err := f.connect(ctx)
	if err != nil {
		return nil, containerUnavailable("Docker APIに接続できません", err, port)
	}

	containers, err := lister.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, containerUnavailable("コンテナ一覧の取得に失敗しました", err, port)
	}

	for _, c := range containers {
		for _, p := range c.Ports {
			if int(p.PublicPort) != port {
				continue
			}
			owner := &types.ContainerOwner{
				ID:    shortID(c.ID),
				Image: c.Image,
			}
			if len(c.Names) > 0 {
				owner.Name = strings.TrimPrefix(c.Names[0], "/")
			}
			f.logger.Debug(ctx, "コンテナ所有者を検出",
				types.Field{Key: "port", Value: port},
				types.Field{Key: "container", Value: owner.Name})
			return owner, nil
		}
	}
	return nil, nil
}

// FallbackContainerFinder は primary が失敗した場合に secondary を試します。
type FallbackContainerFinder struct {
	primary   ContainerFinder
	secondary ContainerFinder
	logger    logger.Logger
}

// NewFallbackContainerFinder は新しいFallbackContainerFinderを作成します。
func NewFallbackContainerFinder(primary, secondary ContainerFinder, logger logger.Logger) *FallbackContainerFinder {
	return &FallbackContainerFinder{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// FindContainerOwner はコンテナ所有者を返します。
func (f *FallbackContainerFinder) FindContainerOwner(ctx context.Context, port int) (*types.ContainerOwner, error) {
	owner, err := f.primary.FindContainerOwner(ctx, port)
	if err == nil {
		return owner, nil
	}

	f.logger.Debug(ctx, "代替手段でコンテナを検索します",
		types.Field{Key: "port", Value: port},
		types.Field{Key: "error", Value: err.Error()})
	return f.secondary.FindContainerOwner(ctx, port)
}

// NopContainerFinder はコンテナを調べない実装です。
type NopContainerFinder struct{}

// FindContainerOwner は常に所有者なしを返します。
func (NopContainerFinder) FindContainerOwner(ctx context.Context, port int) (*types.ContainerOwner, error) {
	return nil, nil
}

// NewContainerFinder は設定に応じたContainerFinderを作成します。
func NewContainerFinder(cfg types.DockerConfig, logger logger.Logger) ContainerFinder {
	switch cfg.Lookup {
	case types.ContainerLookupAPI:
		return NewDockerAPIContainerFinder(cfg.Timeout, logger)
	case types.ContainerLookupCLI:
		return NewDockerCLIContainerFinder(ExecCommandRunner{}, logger)
	case types.ContainerLookupNone:
		return NopContainerFinder{}
	default:
		return NewFallbackContainerFinder(
			NewDockerAPIContainerFinder(cfg.Timeout, logger),
			NewDockerCLIContainerFinder(ExecCommandRunner{}, logger),
			logger,
		)
	}
}

// SystemProber はソケット調査とコンテナ調査を組み合わせたProberです。
type SystemProber struct {
	*SystemPortDetector
	ContainerFinder
}

// NewSystemProber は新しいSystemProberを作成します。
func NewSystemProber(detector *SystemPortDetector, containers ContainerFinder) *SystemProber {
	return &SystemProber{
		SystemPortDetector: detector,
		ContainerFinder:    containers,
	}
}

func containerUnavailable(message string, cause error, port int) *errors.AppError {
	return &errors.AppError{
		Code:    errors.ErrProbeContainerUnavailable,
		Message: message,
		Cause:   cause,
		Fields:  map[string]interface{}{"port": port},
	}
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}
