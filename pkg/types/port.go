// Package types は、composeports で使用される基本的な型定義を提供します。
package types

import "fmt"

const (
	// MinPort は有効なポート番号の下限です。
	MinPort = 1
	// MaxPort は有効なポート番号の上限です。
	MaxPort = 65535
)

// PortRange はポート範囲を表す構造体です。両端を含みます。
type PortRange struct {
	Start int `yaml:"start" json:"start" mapstructure:"start"`
	End   int `yaml:"end" json:"end" mapstructure:"end"`
}

// Contains はポートが範囲内かどうかを判定します。
func (r PortRange) Contains(port int) bool {
	return port >= r.Start && port <= r.End
}

// Size は範囲に含まれるポート数を返します。
func (r PortRange) Size() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// String は "LOW-HIGH" 形式で範囲を返します。
func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Availability はホストポートの使用状況を表します。
type Availability string

const (
	AvailabilityUnknown   Availability = "unknown"
	AvailabilityAvailable Availability = "available"
	AvailabilityInUse     Availability = "in_use"
)

// PortShape はComposeファイル上でのポート指定の記法を表します。
type PortShape string

const (
	// PortShapeShort は "8080:80" のような文字列記法です。
	PortShapeShort PortShape = "short"
	// PortShapeInteger は 8080 のような整数記法です。
	PortShapeInteger PortShape = "integer"
	// PortShapeLong は published/target を持つマッピング記法です。
	PortShapeLong PortShape = "long"
)

// ProcessOwner はポートを待ち受けているプロセスを表します。
type ProcessOwner struct {
	PID  int32  `json:"pid"`
	Name string `json:"name"`
}

// ContainerOwner はポートを公開しているコンテナを表します。
type ContainerOwner struct {
	ID    string `json:"container_id"`
	Name  string `json:"container_name"`
	Image string `json:"image"`
}

// PortOwner はポートの所有者情報です。どちらも取得できない場合があります。
type PortOwner struct {
	Process   *ProcessOwner   `json:"process,omitempty"`
	Container *ContainerOwner `json:"docker_container,omitempty"`
}

// PortMapping はComposeファイル内の1つのポート指定を表します。
// ServiceName と MappingIndex の組でドキュメント上の位置を一意に指します。
type PortMapping struct {
	ServiceName   string      `json:"service_name"`
	MappingIndex  int         `json:"mapping_index"`
	HostIP        string      `json:"host_ip,omitempty"`
	HostPort      int         `json:"host_port"`
	ContainerPort int         `json:"container_port,omitempty"` // 0 は不明
	Protocol      string      `json:"protocol"`
	Shape         PortShape   `json:"shape"`
	Original      interface{} `json:"original_mapping"`
	// VariableName はホストポートが変数参照で与えられている場合の変数名です。
	VariableName string       `json:"env_var,omitempty"`
	Availability Availability `json:"availability"`
	Owner        *PortOwner   `json:"owner,omitempty"`
}

// InUse はホストポートが使用中と判定されたかどうかを返します。
func (m PortMapping) InUse() bool {
	return m.Availability == AvailabilityInUse
}

// UsesVariable はホストポートが変数経由で指定されているかどうかを返します。
func (m PortMapping) UsesVariable() bool {
	return m.VariableName != ""
}
