package scanner

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

// CommandRunner は外部コマンドを実行して標準出力を返します。
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner は os/exec を使うCommandRunnerです。
type ExecCommandRunner struct{}

// Run はコマンドを実行します。
func (ExecCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// DockerCLIContainerFinder は docker コマンドでコンテナを調べる実装です。
type DockerCLIContainerFinder struct {
	runner CommandRunner
	logger logger.Logger
}

// NewDockerCLIContainerFinder は新しいDockerCLIContainerFinderを作成します。
func NewDockerCLIContainerFinder(runner CommandRunner, logger logger.Logger) *DockerCLIContainerFinder {
	return &DockerCLIContainerFinder{runner: runner, logger: logger}
}

// FindContainerOwner は docker ps の各コンテナについて docker port を調べ、
// ホスト側が port に一致する転送を持つ最初のコンテナを返します。
func (d *DockerCLIContainerFinder) FindContainerOwner(ctx context.Context, port int) (*types.ContainerOwner, error) {
	out, err := d.runner.Run(ctx, "docker", "ps", "--format", "{{.ID}}\t{{.Names}}\t{{.Image}}")
	if err != nil {
		return nil, containerUnavailable("docker ps の実行に失敗しました", err, port)
	}

	for _, owner := range parsePsOutput(out) {
		portOut, err := d.runner.Run(ctx, "docker", "port", owner.ID)
		if err != nil {
			// 一覧取得後に停止したコンテナ
			d.logger.Debug(ctx, "docker port の実行に失敗しました",
				types.Field{Key: "container_id", Value: owner.ID},
				types.Field{Key: "error", Value: err.Error()})
			continue
		}
		if publishesHostPort(portOut, port) {
			return &owner, nil
		}
	}
	return nil, nil
}

// parsePsOutput はタブ区切りの "ID 名前 イメージ" 行を解釈します。
func parsePsOutput(out []byte) []types.ContainerOwner {
	var owners []types.ContainerOwner
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		owners = append(owners, types.ContainerOwner{
			ID:    parts[0],
			Name:  parts[1],
			Image: parts[2],
		})
	}
	return owners
}

// publishesHostPort は "80/tcp -> 0.0.0.0:8080" 形式の行のホスト側ポートが port と一致するかを判定します。
func publishesHostPort(out []byte, port int) bool {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		_, hostSide, ok := strings.Cut(scanner.Text(), "->")
		if !ok {
			continue
		}
		hostSide = strings.TrimSpace(hostSide)
		i := strings.LastIndex(hostSide, ":")
		if i < 0 {
			continue
		}
		if n, err := strconv.Atoi(hostSide[i+1:]); err == nil && n == port {
			return true
		}
	}
	return false
}
