package resolver

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/scanner"
	"github.com/harakeishi/composeports/pkg/types"
)

const autoKeyword = "auto"

// ConflictDetectorImpl はポート衝突検出の実装です。
type ConflictDetectorImpl struct {
	prober scanner.Prober
	logger logger.Logger
}

// NewConflictDetectorImpl は新しいConflictDetectorImplを作成します。
func NewConflictDetectorImpl(prober scanner.Prober, logger logger.Logger) *ConflictDetectorImpl {
	return &ConflictDetectorImpl{
		prober: prober,
		logger: logger,
	}
}

// probeResult は1つのホストポートの調査結果です。
type probeResult struct {
	availability types.Availability
	owner        *types.PortOwner
}

// DetectConflicts は各ポート指定の Availability と Owner を埋め、使用中のものを返します。
// 同じホストポートは一度だけ調べます。所有者が分からないことは衝突検出の失敗にはなりません。
func (d *ConflictDetectorImpl) DetectConflicts(ctx context.Context, services []types.ServicePorts) ([]types.PortMapping, error) {
	d.logger.Debug(ctx, "ポート衝突検出開始",
		types.Field{Key: "ports_count", Value: types.CountPorts(services)})

	probed := make(map[int]probeResult)
	containerWarned := false

	for si := range services {
		ports := services[si].Ports
		for pi := range ports {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			mapping := &ports[pi]
			result, ok := probed[mapping.HostPort]
			if !ok {
				result = d.probe(ctx, mapping.HostPort, &containerWarned)
				probed[mapping.HostPort] = result
			}
			mapping.Availability = result.availability
			mapping.Owner = result.owner
		}
	}

	conflicts := types.InUseMappings(services)
	for _, c := range conflicts {
		d.logger.Warn(ctx, "使用中のポートを検出",
			types.Field{Key: "service", Value: c.ServiceName},
			types.Field{Key: "port", Value: c.HostPort})
	}
	d.logger.Info(ctx, "ポート衝突検出完了",
		types.Field{Key: "conflicts_count", Value: len(conflicts)})

	return conflicts, nil
}

func (d *ConflictDetectorImpl) probe(ctx context.Context, port int, containerWarned *bool) probeResult {
	inUse, err := d.prober.IsPortInUse(ctx, port)
	if err != nil {
		d.logger.Warn(ctx, "ポートを調査できませんでした",
			types.Field{Key: "port", Value: port},
			types.Field{Key: "error", Value: err.Error()})
		return probeResult{availability: types.AvailabilityUnknown}
	}
	if !inUse {
		return probeResult{availability: types.AvailabilityAvailable}
	}

	owner := &types.PortOwner{}
	process, err := d.prober.FindProcessOwner(ctx, port)
	if err != nil {
		d.logger.Debug(ctx, "プロセス情報なし",
			types.Field{Key: "port", Value: port},
			types.Field{Key: "error", Value: err.Error()})
	}
	owner.Process = process

	container, err := d.prober.FindContainerOwner(ctx, port)
	if err != nil && !*containerWarned {
		*containerWarned = true
		d.logger.Info(ctx, "コンテナ情報を取得できません",
			types.Field{Key: "error", Value: err.Error()})
	}
	owner.Container = container

	if owner.Process == nil && owner.Container == nil {
		owner = nil
	}
	return probeResult{availability: types.AvailabilityInUse, owner: owner}
}

// ConflictResolverImpl はポート衝突解決の実装です。
type ConflictResolverImpl struct {
	allocator scanner.PortAllocator
	detector  scanner.PortDetector
	validator scanner.PortValidator
	prompter  Prompter
	logger    logger.Logger
}

// NewConflictResolverImpl は新しいConflictResolverImplを作成します。
// prompter は対話モードでだけ使われるため、自動モードだけなら nil でかまいません。
func NewConflictResolverImpl(allocator scanner.PortAllocator, detector scanner.PortDetector, validator scanner.PortValidator, prompter Prompter, logger logger.Logger) *ConflictResolverImpl {
	return &ConflictResolverImpl{
		allocator: allocator,
		detector:  detector,
		validator: validator,
		prompter:  prompter,
		logger:    logger,
	}
}

// Resolve は使用中のポート指定ごとに新しいポートを決め、解決計画を返します。
// ファイルには一切触れません。
//
// 新しいポートは Compose ファイルで宣言済みのホストポートとも、この解決で割り当て済みのポートとも重複しません。
// 同じ変数を参照する複数の指定には同じポートを割り当てます。
func (r *ConflictResolverImpl) Resolve(ctx context.Context, services []types.ServicePorts, opts ResolveOptions) (*types.ResolutionPlan, error) {
	if opts.Mode == "" {
		opts.Mode = types.ResolutionModeAutomatic
	}
	plan := &types.ResolutionPlan{Mode: opts.Mode, Changes: []types.PortChange{}}

	conflicts := types.InUseMappings(services)
	if len(conflicts) == 0 {
		return plan, nil
	}

	// 変数経由の指定を直せない場合は、問い合わせも書き込みもせずに終了する
	if !opts.VariableFileKnown {
		for _, c := range conflicts {
			if c.UsesVariable() {
				return nil, errors.NewVariableFileMissingError(c.ServiceName, c.VariableName)
			}
		}
	}
	if opts.Mode == types.ResolutionModeInteractive && r.prompter == nil {
		return nil, &errors.AppError{
			Code:    errors.ErrInternalError,
			Message: "対話モードの入力元が設定されていません",
		}
	}

	r.logger.Info(ctx, "ポート衝突解決開始",
		types.Field{Key: "conflicts_count", Value: len(conflicts)},
		types.Field{Key: "mode", Value: string(opts.Mode)},
		types.Field{Key: "range", Value: opts.Range.String()})

	allocated := make(map[int]struct{})
	for _, s := range services {
		for _, p := range s.Ports {
			allocated[p.HostPort] = struct{}{}
		}
	}
	variablePorts := make(map[string]int)

	for _, c := range conflicts {
		change := types.PortChange{
			ServiceName:   c.ServiceName,
			MappingIndex:  c.MappingIndex,
			OldHostPort:   c.HostPort,
			ContainerPort: c.ContainerPort,
			Protocol:      c.Protocol,
			VariableName:  c.VariableName,
			Target:        types.ChangeTargetDocument,
		}
		if c.UsesVariable() {
			change.Target = types.ChangeTargetVariables
			if port, ok := variablePorts[c.VariableName]; ok {
				change.NewHostPort = port
				plan.Changes = append(plan.Changes, change)
				continue
			}
		}

		port, err := r.choosePort(ctx, c, opts, allocated)
		if err != nil {
			if _, ok := errors.As(err); !ok && stderrors.Is(err, context.Canceled) {
				return nil, errors.NewCancelledError().WithCause(err)
			}
			return nil, err
		}
		allocated[port] = struct{}{}
		if c.UsesVariable() {
			variablePorts[c.VariableName] = port
		}

		change.NewHostPort = port
		plan.Changes = append(plan.Changes, change)

		r.logger.Info(ctx, "新しいポートを割り当てました",
			types.Field{Key: "service", Value: c.ServiceName},
			types.Field{Key: "old_port", Value: c.HostPort},
			types.Field{Key: "new_port", Value: port},
			types.Field{Key: "target", Value: string(change.Target)})
	}

	return plan, nil
}

func (r *ConflictResolverImpl) choosePort(ctx context.Context, mapping types.PortMapping, opts ResolveOptions, allocated map[int]struct{}) (int, error) {
	if opts.Mode != types.ResolutionModeInteractive {
		return r.allocator.FindFreePort(ctx, opts.Range, allocated)
	}

	for {
		answer, err := r.prompter.Ask(ctx, mapping)
		if err != nil {
			return 0, errors.NewCancelledError().WithCause(err)
		}
		answer = strings.TrimSpace(answer)

		if strings.EqualFold(answer, autoKeyword) {
			return r.allocator.FindFreePort(ctx, opts.Range, allocated)
		}

		port, err := strconv.Atoi(answer)
		if err != nil {
			r.prompter.Reject(ctx, "有効なポート番号か 'auto' を入力してください")
			continue
		}
		if err := r.validator.ValidatePort(ctx, port); err != nil {
			r.prompter.Reject(ctx, fmt.Sprintf("ポート番号は %d から %d の範囲で入力してください", types.MinPort, types.MaxPort))
			continue
		}
		if _, taken := allocated[port]; taken {
			r.prompter.Reject(ctx, fmt.Sprintf("ポート %d は既に割り当て済みです。別のポートを選んでください", port))
			continue
		}
		if inUse, err := r.detector.IsPortInUse(ctx, port); err != nil || inUse {
			r.prompter.Reject(ctx, fmt.Sprintf("ポート %d は使用中です。別のポートを選んでください", port))
			continue
		}
		return port, nil
	}
}
