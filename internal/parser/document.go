package parser

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/variables"
)

const (
	tagInt = "!!int"
	tagStr = "!!str"

	keyServices  = "services"
	keyPorts     = "ports"
	keyImage     = "image"
	keyPublished = "published"
	keyTarget    = "target"
	keyProtocol  = "protocol"
	keyHostIP    = "host_ip"
)

// Document は読み込んだComposeファイルのノードツリーです。
// ツリーを直接書き換えるため、キーの順序やコメントは保存時にも維持されます。
type Document struct {
	Path string
	root *yaml.Node
}

// Visitor は Walk が各ノードで呼び出す関数です。
// key はそのノードを値として持つ直近のマッピングキーで、シーケンスの要素は親のキーを引き継ぎます。
type Visitor func(key string, node *yaml.Node)

// Walk はノードツリーを深さ優先で巡回します。エイリアスは参照先を巡回します。
func Walk(node *yaml.Node, visit Visitor) {
	walk(node, "", visit, make(map[*yaml.Node]bool))
}

func walk(node *yaml.Node, key string, visit Visitor, active map[*yaml.Node]bool) {
	if node == nil || active[node] {
		return
	}
	active[node] = true
	defer delete(active, node)

	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			walk(child, key, visit, active)
		}
	case yaml.MappingNode:
		visit(key, node)
		for i := 0; i+1 < len(node.Content); i += 2 {
			walk(node.Content[i+1], node.Content[i].Value, visit, active)
		}
	case yaml.SequenceNode:
		visit(key, node)
		for _, child := range node.Content {
			walk(child, key, visit, active)
		}
	case yaml.ScalarNode:
		visit(key, node)
	case yaml.AliasNode:
		walk(node.Alias, key, visit, active)
	}
}

// ReferencedVariables はいずれかの階層の ports に書かれた文字列と published が
// 参照する変数名を重複なしの昇順で返します。
func (d *Document) ReferencedVariables() []string {
	seen := make(map[string]bool)
	collect := func(node *yaml.Node) {
		if node == nil || node.Kind != yaml.ScalarNode || node.Tag != tagStr {
			return
		}
		for _, name := range variables.Names(node.Value) {
			seen[name] = true
		}
	}

	Walk(d.root, func(key string, node *yaml.Node) {
		if key != keyPorts || node.Kind != yaml.SequenceNode {
			return
		}
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind == yaml.MappingNode {
				collect(resolveAlias(mappingValue(item, keyPublished)))
				continue
			}
			collect(item)
		}
	})

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetHostPort は (service, index) のポート指定のホストポートを書き換えます。
// 記法は元のまま維持します。
//   - "H:C" 形式の文字列は "N:C" (ホストIPとプロトコル指定も維持)
//   - "P" 形式の文字列は "N:P" (コンテナポートを維持)
//   - 整数は整数 N
//   - マッピングは published だけを N に変更
func (d *Document) SetHostPort(service string, index int, newPort int) error {
	node, err := d.portNode(service, index)
	if err != nil {
		return err
	}

	value := strconv.Itoa(newPort)
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == tagInt {
			node.Value = value
			return nil
		}
		node.Value = rewriteShortSyntax(node.Value, newPort)
		return nil
	case yaml.MappingNode:
		published := mappingValue(node, keyPublished)
		if published == nil {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: keyPublished},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: value},
			)
			return nil
		}
		published.Value = value
		if published.Tag != tagStr {
			published.Tag = tagInt
			published.Style = 0
		}
		return nil
	default:
		return &errors.AppError{
			Code:    errors.ErrResolutionMappingNotFound,
			Message: fmt.Sprintf("サービス %s のポート指定 %d は書き換えできない形式です", service, index),
			Fields: map[string]interface{}{
				"service": service,
				"index":   index,
			},
		}
	}
}

// Encode はノードツリーをYAMLとして出力します。
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, d.encodeError(err)
	}
	if err := enc.Close(); err != nil {
		return nil, d.encodeError(err)
	}
	return buf.Bytes(), nil
}

func (d *Document) encodeError(err error) error {
	return &errors.AppError{
		Code:    errors.ErrFileWriteFailed,
		Message: "YAMLの出力に失敗しました",
		Cause:   err,
		Fields:  map[string]interface{}{"file_path": d.Path},
	}
}

// body はドキュメント直下のノードを返します。
func (d *Document) body() *yaml.Node {
	node := d.root
	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	return resolveAlias(node)
}

// servicesNode は services マッピングを返します。存在しない場合は nil です。
func (d *Document) servicesNode() *yaml.Node {
	body := d.body()
	if body == nil || body.Kind != yaml.MappingNode {
		return nil
	}
	return resolveAlias(mappingValue(body, keyServices))
}

// portNode は (service, index) のポート指定のノードを返します。
// 経路上のエイリアスは参照先の複製に置き換え、経路上のアンカーを参照する他のエイリアスも複製にします。
// 返したノードを書き換えても、他のポート指定は変わりません。
func (d *Document) portNode(service string, index int) (*yaml.Node, error) {
	notFound := &errors.AppError{
		Code:    errors.ErrResolutionMappingNotFound,
		Message: fmt.Sprintf("サービス %s のポート指定 %d が見つかりません", service, index),
		Fields: map[string]interface{}{
			"service": service,
			"index":   index,
		},
	}

	services := detachValue(d.body(), keyServices)
	if services == nil || services.Kind != yaml.MappingNode {
		return nil, notFound
	}
	svc := detachValue(services, service)
	if svc == nil || svc.Kind != yaml.MappingNode {
		return nil, notFound
	}
	ports := detachValue(svc, keyPorts)
	if ports == nil || ports.Kind != yaml.SequenceNode || index < 0 || index >= len(ports.Content) {
		return nil, notFound
	}
	item := detachAt(ports.Content, index)

	path := []*yaml.Node{services, svc, ports, item}
	if item.Kind == yaml.MappingNode {
		if published := detachValue(item, keyPublished); published != nil {
			path = append(path, published)
		}
	}
	d.unshare(path)
	return item, nil
}

// detachValue はマッピングの key の値を返します。値がエイリアスの場合は参照先の複製に置き換えます。
func detachValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return detachAt(node.Content, i+1)
		}
	}
	return nil
}

func detachAt(nodes []*yaml.Node, i int) *yaml.Node {
	if nodes[i].Kind == yaml.AliasNode {
		nodes[i] = copyNode(resolveAlias(nodes[i]))
	}
	return nodes[i]
}

// unshare は nodes のいずれかを参照するエイリアスを、参照先の複製に置き換えます。
func (d *Document) unshare(nodes []*yaml.Node) {
	anchored := make(map[*yaml.Node]bool)
	for _, node := range nodes {
		if node != nil && node.Anchor != "" {
			anchored[node] = true
		}
	}
	if len(anchored) == 0 {
		return
	}

	var visit func(node *yaml.Node)
	visit = func(node *yaml.Node) {
		for i, child := range node.Content {
			if child.Kind == yaml.AliasNode {
				if anchored[child.Alias] {
					node.Content[i] = copyNode(child.Alias)
				}
				continue
			}
			visit(child)
		}
	}
	visit(d.root)
}

// copyNode はノードを深く複製します。複製にはアンカーを付けません。
// 複製の中のエイリアスは元の参照先を指したままです。
func copyNode(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	dup := *node
	dup.Anchor = ""
	if node.Kind != yaml.AliasNode && len(node.Content) > 0 {
		dup.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			dup.Content[i] = copyNode(child)
		}
	}
	return &dup
}

// mappingValue はマッピングノードから key の値ノードを返します。
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// rewriteShortSyntax は文字列記法のホストポートだけを差し替えます。
func rewriteShortSyntax(spec string, newPort int) string {
	port := strconv.Itoa(newPort)
	hostSpec, containerSpec, ok := cutLast(spec, ":")
	if !ok {
		// "P" / "P/proto" はホストとコンテナが同じポートだったので、コンテナ側を残す
		return port + ":" + spec
	}
	if hostIP, _, hasIP := cutLast(hostSpec, ":"); hasIP {
		return hostIP + ":" + port + ":" + containerSpec
	}
	return port + ":" + containerSpec
}

// cutLast は最後の sep で文字列を分割します。
func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
