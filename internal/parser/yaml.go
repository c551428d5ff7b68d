package parser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docker/go-connections/nat"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/variables"
	"github.com/harakeishi/composeports/pkg/types"
)

const defaultProtocol = "tcp"

// YamlComposeParser はYAMLベースのDocker Compose解析実装です。
type YamlComposeParser struct {
	fs     afero.Fs
	logger logger.Logger
}

// NewYamlComposeParser は新しいYamlComposeParserを作成します。
func NewYamlComposeParser(fs afero.Fs, logger logger.Logger) *YamlComposeParser {
	return &YamlComposeParser{
		fs:     fs,
		logger: logger,
	}
}

// ParseComposeFile はDocker Composeファイルを解析します。
func (p *YamlComposeParser) ParseComposeFile(ctx context.Context, path string) (*Document, error) {
	p.logger.Debug(ctx, "Docker Composeファイル解析開始", types.Field{Key: "file", Value: path})

	// ファイルの存在確認
	if ok, _ := afero.Exists(p.fs, path); !ok {
		return nil, &errors.AppError{
			Code:    errors.ErrComposeNotFound,
			Message: fmt.Sprintf("Docker Composeファイルが見つかりません: %s", path),
			Fields: map[string]interface{}{
				"file_path": path,
			},
		}
	}

	// ファイル読み込み
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrFileReadFailed,
			Message: fmt.Sprintf("ファイル読み込みに失敗しました: %s", path),
			Cause:   err,
			Fields: map[string]interface{}{
				"file_path": path,
			},
		}
	}

	return p.ParseBytes(ctx, path, data)
}

// ParseBytes はYAMLバイト列をノードツリーとして読み込みます。
func (p *YamlComposeParser) ParseBytes(ctx context.Context, path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &errors.AppError{
			Code:    errors.ErrFileInvalidYAML,
			Message: "YAMLの解析に失敗しました",
			Cause:   err,
			Fields: map[string]interface{}{
				"file_path": path,
			},
		}
	}

	doc := &Document{Path: path, root: &root}
	if body := doc.body(); body == nil || body.Kind != yaml.MappingNode {
		return nil, errors.NewDockerComposeInvalidError(path, "トップレベルがマッピングではありません")
	}

	p.logger.Debug(ctx, "Docker Composeファイル解析完了", types.Field{Key: "file", Value: path})
	return doc, nil
}

// ExtractPortMappings はサービスごとのポート指定をドキュメント順に取り出します。
// 文字列の値は変数を展開してから解釈し、ホストポートを持たない指定は除外します。
func (p *YamlComposeParser) ExtractPortMappings(ctx context.Context, doc *Document, vars variables.Lookup) ([]types.ServicePorts, error) {
	services := doc.servicesNode()
	if services == nil {
		p.logger.Warn(ctx, "servicesセクションが見つかりません", types.Field{Key: "file", Value: doc.Path})
		return []types.ServicePorts{}, nil
	}
	if services.Kind != yaml.MappingNode {
		return nil, errors.NewDockerComposeInvalidError(doc.Path, "servicesセクションの形式が無効です")
	}

	result := make([]types.ServicePorts, 0, len(services.Content)/2)
	for i := 0; i+1 < len(services.Content); i += 2 {
		name := services.Content[i].Value
		svc := resolveAlias(services.Content[i+1])
		if svc == nil || svc.Kind != yaml.MappingNode {
			p.logger.Warn(ctx, "サービス設定の形式が無効です", types.Field{Key: "service", Value: name})
			continue
		}

		entry := types.ServicePorts{
			Name:  name,
			Image: types.DefaultImage,
			Ports: []types.PortMapping{},
		}
		if image := resolveAlias(mappingValue(svc, keyImage)); image != nil && image.Kind == yaml.ScalarNode && image.Value != "" {
			entry.Image = image.Value
		}

		ports := resolveAlias(mappingValue(svc, keyPorts))
		if ports != nil && ports.Kind == yaml.SequenceNode {
			for index, item := range ports.Content {
				mapping, ok := p.parsePortNode(ctx, name, index, resolveAlias(item), vars)
				if ok {
					entry.Ports = append(entry.Ports, mapping)
				}
			}
		}

		result = append(result, entry)
	}

	p.logger.Info(ctx, "ポート指定の抽出完了",
		types.Field{Key: "services_count", Value: len(result)},
		types.Field{Key: "ports_count", Value: types.CountPorts(result)})

	return result, nil
}

// parsePortNode は個別のポート指定を解析します。
func (p *YamlComposeParser) parsePortNode(ctx context.Context, service string, index int, node *yaml.Node, vars variables.Lookup) (types.PortMapping, bool) {
	mapping := types.PortMapping{
		ServiceName:  service,
		MappingIndex: index,
		Protocol:     defaultProtocol,
		Availability: types.AvailabilityUnknown,
	}

	switch {
	case node.Kind == yaml.ScalarNode && node.Tag == tagInt:
		var port int
		if err := node.Decode(&port); err != nil {
			break
		}
		mapping.Shape = types.PortShapeInteger
		mapping.Original = port
		mapping.HostPort = port
		mapping.ContainerPort = port
		return p.accept(ctx, mapping)

	case node.Kind == yaml.ScalarNode && node.Tag == tagStr:
		spec, ok := parseShortSyntax(variables.Resolve(node.Value, vars))
		if !ok {
			break
		}
		mapping.Shape = types.PortShapeShort
		mapping.Original = node.Value
		mapping.HostIP = spec.hostIP
		mapping.HostPort = spec.host
		mapping.ContainerPort = spec.container
		mapping.Protocol = spec.protocol
		if name, ok := variables.FirstReference(node.Value); ok {
			mapping.VariableName = name
		}
		return p.accept(ctx, mapping)

	case node.Kind == yaml.MappingNode:
		p.parseLongSyntax(node, vars, &mapping)
		return p.accept(ctx, mapping)
	}

	p.logger.Debug(ctx, "サポートされていないポート形式",
		types.Field{Key: "service", Value: service},
		types.Field{Key: "index", Value: index},
		types.Field{Key: "tag", Value: node.Tag})
	return mapping, false
}

// accept はホストポートを持つ指定だけを残します。
func (p *YamlComposeParser) accept(ctx context.Context, mapping types.PortMapping) (types.PortMapping, bool) {
	if mapping.HostPort < types.MinPort || mapping.HostPort > types.MaxPort {
		p.logger.Debug(ctx, "ホストポートのない指定を除外",
			types.Field{Key: "service", Value: mapping.ServiceName},
			types.Field{Key: "index", Value: mapping.MappingIndex},
			types.Field{Key: "original", Value: mapping.Original})
		return mapping, false
	}
	return mapping, true
}

// parseLongSyntax は published/target 形式のポート指定を解析します。
func (p *YamlComposeParser) parseLongSyntax(node *yaml.Node, vars variables.Lookup, mapping *types.PortMapping) {
	mapping.Shape = types.PortShapeLong

	var original map[string]interface{}
	if err := node.Decode(&original); err == nil {
		mapping.Original = original
	}

	if published := resolveAlias(mappingValue(node, keyPublished)); published != nil {
		mapping.HostPort = scalarPort(published, vars)
		if published.Tag == tagStr {
			if name, ok := variables.FirstReference(published.Value); ok {
				mapping.VariableName = name
			}
		}
	}
	if target := resolveAlias(mappingValue(node, keyTarget)); target != nil {
		mapping.ContainerPort = scalarPort(target, vars)
	}
	if protocol := resolveAlias(mappingValue(node, keyProtocol)); protocol != nil && protocol.Kind == yaml.ScalarNode && protocol.Value != "" {
		mapping.Protocol = protocol.Value
	}
	if hostIP := resolveAlias(mappingValue(node, keyHostIP)); hostIP != nil && hostIP.Kind == yaml.ScalarNode {
		mapping.HostIP = variables.Resolve(hostIP.Value, vars)
	}
}

// scalarPort は整数または数字だけの文字列のスカラーをポート番号として読みます。
func scalarPort(node *yaml.Node, vars variables.Lookup) int {
	if node.Kind != yaml.ScalarNode {
		return 0
	}
	switch node.Tag {
	case tagInt:
		var port int
		if err := node.Decode(&port); err != nil {
			return 0
		}
		return port
	case tagStr:
		port, _ := atoiDigits(variables.Resolve(node.Value, vars))
		return port
	}
	return 0
}

// shortSpec は文字列記法を解釈した結果です。
type shortSpec struct {
	hostIP    string
	host      int
	container int
	protocol  string
}

// parseShortSyntax は "H:C", "H:C/p", "IP:H:C", "P", "P/p" を解釈します。
// ホストポートが数字でない場合 (範囲指定など) は host が 0 になります。
func parseShortSyntax(spec string) (shortSpec, bool) {
	result := shortSpec{protocol: defaultProtocol}

	hostSpec, containerSpec, hasColon := cutLast(spec, ":")
	if !hasColon {
		containerSpec = spec
	}

	proto, port := nat.SplitProtoPort(containerSpec)
	if proto != "" {
		result.protocol = proto
	}
	container, containerOK := atoiDigits(port)
	if containerOK {
		result.container = container
	}

	if !hasColon {
		// 単独指定はホストとコンテナが同じポート
		if !containerOK {
			return result, false
		}
		result.host = container
		return result, true
	}

	if ip, h, hasIP := cutLast(hostSpec, ":"); hasIP {
		result.hostIP = ip
		hostSpec = h
	}
	if host, ok := atoiDigits(hostSpec); ok {
		result.host = host
	}
	return result, true
}

// atoiDigits は ASCII 数字だけから成る文字列を整数に変換します。
func atoiDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
