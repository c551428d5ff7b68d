package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harakeishi/composeports/pkg/types"
)

const ruleWidth = 50

// TextPresenter は絵文字と色付きの人間向けレポートを出力します。
type TextPresenter struct {
	bold *color.Color
	ok   *color.Color
	ng   *color.Color
	warn *color.Color
}

// NewTextPresenter は新しいTextPresenterを作成します。
// 色は fatih/color の判定に従い、端末でない出力では無効になります。
func NewTextPresenter() *TextPresenter {
	return &TextPresenter{
		bold: color.New(color.Bold),
		ok:   color.New(color.FgGreen),
		ng:   color.New(color.FgRed),
		warn: color.New(color.FgYellow),
	}
}

// Present はレポートを書き出します。衝突解決を行った場合は変更内容を先に出力します。
func (p *TextPresenter) Present(w io.Writer, r *Report) error {
	var b strings.Builder

	if r.Changes != nil {
		p.writeChanges(&b, r.Changes)
		b.WriteString("\n")
	} else if r.FixRequested {
		fmt.Fprintln(&b, p.ok.Sprint("✅ 解決が必要な衝突はありません"))
		b.WriteString("\n")
	}
	p.writeAnalysis(&b, r)

	_, err := io.WriteString(w, b.String())
	return err
}

func (p *TextPresenter) writeAnalysis(b *strings.Builder, r *Report) {
	fmt.Fprintln(b, p.bold.Sprint("🐳 Docker Compose ポート分析"))
	fmt.Fprintln(b, strings.Repeat("=", ruleWidth))
	b.WriteString("\n")

	env := r.Environment
	if env.UsesEnvVars {
		fmt.Fprintf(b, "🌍 ポートで使用している環境変数: %s\n", strings.Join(env.EnvVarsDetected, ", "))
		if env.EnvFilePath != "" {
			fmt.Fprintf(b, "📄 環境変数ファイル: %s\n", env.EnvFilePath)
		}
		if len(env.EnvVarsMissing) > 0 {
			fmt.Fprintln(b, p.warn.Sprintf("⚠️  未定義の環境変数: %s", strings.Join(env.EnvVarsMissing, ", ")))
		}
		b.WriteString("\n")
	}

	if len(r.Services) == 0 {
		fmt.Fprintln(b, p.ng.Sprint("❌ Composeファイルにサービスがありません"))
		return
	}

	fmt.Fprintf(b, "📊 概要: %d サービス, %d ポート\n", len(r.Services), types.CountPorts(r.Services))
	if used := r.InUseCount(); used == 0 {
		fmt.Fprintln(b, p.ok.Sprint("✅ すべてのポートが利用可能です"))
	} else {
		fmt.Fprintln(b, p.warn.Sprintf("⚠️  %d 件のポートが使用中です", used))
	}
	b.WriteString("\n")

	for _, s := range r.Services {
		fmt.Fprintf(b, "🔧 サービス: %s\n", s.Name)
		fmt.Fprintf(b, "   📦 イメージ: %s\n", s.Image)
		if len(s.Ports) == 0 {
			b.WriteString("   🔌 ポート: なし\n\n")
			continue
		}

		b.WriteString("   🔌 ポート:\n")
		for _, m := range s.Ports {
			display := portDisplay(m.HostPort, m.ContainerPort, m.Protocol)
			if m.UsesVariable() {
				display += fmt.Sprintf(" (${%s})", m.VariableName)
			}
			fmt.Fprintf(b, "      └─ %s - %s\n", display, p.status(m.Availability))

			if m.Owner == nil {
				continue
			}
			if proc := m.Owner.Process; proc != nil {
				fmt.Fprintf(b, "         └─ プロセス: %s (PID: %d)\n", proc.Name, proc.PID)
			}
			if c := m.Owner.Container; c != nil {
				fmt.Fprintf(b, "         └─ Docker: %s\n", c.Name)
				fmt.Fprintf(b, "            イメージ: %s\n", c.Image)
			}
		}
		b.WriteString("\n")
	}
}

func (p *TextPresenter) writeChanges(b *strings.Builder, c *Changes) {
	for _, backup := range c.Backups {
		fmt.Fprintf(b, "💾 バックアップを作成しました: %s\n", backup)
	}
	for _, f := range c.UpdatedFiles {
		fmt.Fprintln(b, p.ok.Sprintf("✅ %s を更新しました", f))
	}
	if len(c.Backups) > 0 || len(c.UpdatedFiles) > 0 {
		b.WriteString("\n")
	}

	if c.Plan.IsEmpty() {
		fmt.Fprintln(b, p.ok.Sprint("✅ 変更は不要です。すべてのポートが利用可能です"))
		return
	}

	fmt.Fprintln(b, p.bold.Sprint("🔧 ポート衝突の解決結果"))
	fmt.Fprintln(b, strings.Repeat("=", ruleWidth))
	b.WriteString("\n")

	services := groupByService(c.Plan.Changes)
	fmt.Fprintf(b, "📊 %d サービスの %d ポートを変更しました\n", len(services), len(c.Plan.Changes))
	if len(c.UpdatedFiles) > 0 {
		fmt.Fprintf(b, "📝 更新したファイル: %s\n", strings.Join(c.UpdatedFiles, ", "))
	}
	b.WriteString("\n")

	if updates := c.Plan.VariableUpdates(); len(updates) > 0 {
		b.WriteString("🌍 環境変数の変更:\n")
		for _, u := range updates {
			fmt.Fprintf(b, "   └─ %s = %d\n", u.Name, u.Port)
		}
		b.WriteString("\n")
	}

	for _, group := range services {
		fmt.Fprintf(b, "🔧 サービス: %s\n", group.name)
		for _, change := range group.changes {
			line := fmt.Sprintf("%s → %s",
				portDisplay(change.OldHostPort, change.ContainerPort, change.Protocol),
				portDisplay(change.NewHostPort, change.ContainerPort, change.Protocol))
			if change.Target == types.ChangeTargetVariables {
				line += fmt.Sprintf(" (${%s} 経由)", change.VariableName)
			}
			fmt.Fprintf(b, "   └─ %s\n", line)
		}
		b.WriteString("\n")
	}
}

func (p *TextPresenter) status(a types.Availability) string {
	switch a {
	case types.AvailabilityAvailable:
		return p.ok.Sprint("✅ 利用可能")
	case types.AvailabilityInUse:
		return p.ng.Sprint("❌ 使用中")
	default:
		return p.warn.Sprint("❔ 不明")
	}
}

// portDisplay はホストとコンテナが同じ (またはコンテナ側が不明な) 場合 "H/proto"、それ以外は "H:C/proto" を返します。
func portDisplay(host, container int, protocol string) string {
	if container == 0 || container == host {
		return fmt.Sprintf("%d/%s", host, protocol)
	}
	return fmt.Sprintf("%d:%d/%s", host, container, protocol)
}

type serviceChanges struct {
	name    string
	changes []types.PortChange
}

// groupByService は変更をサービスごとに、最初に現れた順でまとめます。
func groupByService(changes []types.PortChange) []serviceChanges {
	var groups []serviceChanges
	index := make(map[string]int)
	for _, c := range changes {
		i, ok := index[c.ServiceName]
		if !ok {
			i = len(groups)
			index[c.ServiceName] = i
			groups = append(groups, serviceChanges{name: c.ServiceName})
		}
		groups[i].changes = append(groups[i].changes, c)
	}
	return groups
}
