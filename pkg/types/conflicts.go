package types

// ResolutionMode は衝突解決の方式を表します。
type ResolutionMode string

const (
	ResolutionModeAutomatic   ResolutionMode = "automatic"
	ResolutionModeInteractive ResolutionMode = "interactive"
)

// ChangeTarget は変更の書き込み先を表します。
type ChangeTarget string

const (
	// ChangeTargetDocument はComposeファイル本体を書き換えます。
	ChangeTargetDocument ChangeTarget = "document"
	// ChangeTargetVariables は変数ファイルの値を書き換えます。
	ChangeTargetVariables ChangeTarget = "variables"
)

// PortChange は1つのポート指定に対する変更内容です。
type PortChange struct {
	ServiceName   string       `json:"service"`
	MappingIndex  int          `json:"mapping_index"`
	OldHostPort   int          `json:"old_port"`
	NewHostPort   int          `json:"new_port"`
	ContainerPort int          `json:"container_port,omitempty"`
	Protocol      string       `json:"protocol"`
	VariableName  string       `json:"env_var,omitempty"`
	Target        ChangeTarget `json:"target"`
}

// ResolutionPlan は衝突解決計画を表します。書き込み前にすべてメモリ上で確定します。
type ResolutionPlan struct {
	Mode    ResolutionMode `json:"mode"`
	Changes []PortChange   `json:"changes"`
}

// IsEmpty は変更がない場合に true を返します。
func (p *ResolutionPlan) IsEmpty() bool {
	return p == nil || len(p.Changes) == 0
}

// DocumentChanges はComposeファイルへの変更だけを返します。
func (p *ResolutionPlan) DocumentChanges() []PortChange {
	return p.filter(ChangeTargetDocument)
}

// VariableChanges は変数ファイルへの変更だけを返します。
func (p *ResolutionPlan) VariableChanges() []PortChange {
	return p.filter(ChangeTargetVariables)
}

// VariableUpdates は変数名と新しい値の組を最初に現れた順で返します。
func (p *ResolutionPlan) VariableUpdates() []VariableUpdate {
	var updates []VariableUpdate
	seen := make(map[string]bool)
	for _, c := range p.VariableChanges() {
		if seen[c.VariableName] {
			continue
		}
		seen[c.VariableName] = true
		updates = append(updates, VariableUpdate{Name: c.VariableName, Port: c.NewHostPort})
	}
	return updates
}

func (p *ResolutionPlan) filter(target ChangeTarget) []PortChange {
	if p == nil {
		return nil
	}
	var result []PortChange
	for _, c := range p.Changes {
		if c.Target == target {
			result = append(result, c)
		}
	}
	return result
}

// VariableUpdate は変数ファイルへの1件の更新です。
type VariableUpdate struct {
	Name string `json:"name"`
	Port int    `json:"port"`
}
