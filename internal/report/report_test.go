package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harakeishi/composeports/pkg/types"
)

func init() {
	color.NoColor = true
}

func sampleReport() *Report {
	return &Report{
		ComposeFile: "docker-compose.yml",
		Services: []types.ServicePorts{
			{
				Name:  "web",
				Image: "nginx:latest",
				Ports: []types.PortMapping{
					{
						ServiceName: "web", MappingIndex: 0, HostPort: 8080, ContainerPort: 80, Protocol: "tcp",
						Shape: types.PortShapeShort, Original: "${WEB_PORT}:80", VariableName: "WEB_PORT",
						Availability: types.AvailabilityInUse,
						Owner: &types.PortOwner{
							Process:   &types.ProcessOwner{PID: 42, Name: "nginx"},
							Container: &types.ContainerOwner{ID: "abc123", Name: "old-web", Image: "nginx:1.25"},
						},
					},
					{
						ServiceName: "web", MappingIndex: 1, HostPort: 5353, ContainerPort: 5353, Protocol: "udp",
						Shape: types.PortShapeShort, Original: "5353/udp", Availability: types.AvailabilityAvailable,
					},
				},
			},
			{Name: "worker", Image: types.DefaultImage, Ports: []types.PortMapping{}},
		},
		Environment: Environment{
			UsesEnvVars:     true,
			EnvFilePath:     ".env",
			EnvVarsDetected: []string{"WEB_PORT"},
			EnvVarsLoaded:   3,
		},
	}
}

func TestTextPresenter_Analysis(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextPresenter().Present(&buf, sampleReport()))
	out := buf.String()

	for _, want := range []string{
		"🐳 Docker Compose ポート分析",
		"🌍 ポートで使用している環境変数: WEB_PORT",
		"📄 環境変数ファイル: .env",
		"📊 概要: 2 サービス, 2 ポート",
		"⚠️  1 件のポートが使用中です",
		"🔧 サービス: web",
		"📦 イメージ: nginx:latest",
		"└─ 8080:80/tcp (${WEB_PORT}) - ❌ 使用中",
		"└─ プロセス: nginx (PID: 42)",
		"└─ Docker: old-web",
		"イメージ: nginx:1.25",
		"└─ 5353/udp - ✅ 利用可能",
		"🔌 ポート: なし",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "ポート衝突の解決結果")
}

func TestTextPresenter_NoServices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextPresenter().Present(&buf, &Report{}))
	assert.Contains(t, buf.String(), "❌ Composeファイルにサービスがありません")
}

func TestTextPresenter_Changes(t *testing.T) {
	r := sampleReport()
	r.FixRequested = true
	r.Changes = &Changes{
		Plan: &types.ResolutionPlan{Mode: types.ResolutionModeAutomatic, Changes: []types.PortChange{
			{ServiceName: "web", MappingIndex: 0, OldHostPort: 8080, NewHostPort: 9001, ContainerPort: 80, Protocol: "tcp", VariableName: "WEB_PORT", Target: types.ChangeTargetVariables},
			{ServiceName: "api", MappingIndex: 0, OldHostPort: 3000, NewHostPort: 9002, ContainerPort: 3000, Protocol: "tcp", Target: types.ChangeTargetDocument},
		}},
		UpdatedFiles: []string{"docker-compose.yml", ".env"},
		Backups:      []string{"docker-compose.yml.backup"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewTextPresenter().Present(&buf, r))
	out := buf.String()

	for _, want := range []string{
		"💾 バックアップを作成しました: docker-compose.yml.backup",
		"✅ .env を更新しました",
		"📊 2 サービスの 2 ポートを変更しました",
		"📝 更新したファイル: docker-compose.yml, .env",
		"└─ WEB_PORT = 9001",
		"└─ 8080:80/tcp → 9001:80/tcp (${WEB_PORT} 経由)",
		"└─ 3000/tcp → 9002:3000/tcp",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("ポート衝突の解決結果")), bytes.Index(buf.Bytes(), []byte("ポート分析")))
}

func TestTextPresenter_FixWithoutConflicts(t *testing.T) {
	r := sampleReport()
	r.Services = r.Services[1:]
	r.FixRequested = true

	var buf bytes.Buffer
	require.NoError(t, NewTextPresenter().Present(&buf, r))
	assert.Contains(t, buf.String(), "✅ 解決が必要な衝突はありません")
}

func TestJSONPresenter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONPresenter().Present(&buf, sampleReport()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, map[string]interface{}{
		"total_services": float64(2),
		"total_ports":    float64(2),
		"ports_in_use":   float64(1),
	}, got["summary"])
	assert.NotContains(t, got, "changes")

	services := got["services"].([]interface{})
	web := services[0].(map[string]interface{})
	ports := web["ports"].([]interface{})

	first := ports[0].(map[string]interface{})
	assert.Equal(t, float64(8080), first["host_port"])
	assert.Equal(t, float64(80), first["container_port"])
	assert.Equal(t, false, first["available"])
	assert.Equal(t, "WEB_PORT", first["env_var"])
	assert.Equal(t, "${WEB_PORT}:80", first["original_mapping"])
	assert.Equal(t, map[string]interface{}{"pid": float64(42), "name": "nginx"}, first["process"])
	assert.Equal(t, map[string]interface{}{
		"container_id":   "abc123",
		"container_name": "old-web",
		"image":          "nginx:1.25",
	}, first["docker_container"])

	second := ports[1].(map[string]interface{})
	assert.Equal(t, true, second["available"])
	assert.Nil(t, second["env_var"])
	assert.Nil(t, second["process"])
	assert.Nil(t, second["docker_container"])

	worker := services[1].(map[string]interface{})
	assert.Equal(t, []interface{}{}, worker["ports"])

	env := got["environment"].(map[string]interface{})
	assert.Equal(t, true, env["uses_env_vars"])
	assert.Equal(t, ".env", env["env_file_path"])
	assert.Equal(t, []interface{}{"WEB_PORT"}, env["env_vars_detected"])
	assert.Equal(t, float64(3), env["env_vars_loaded"])
}

func TestJSONPresenter_Changes(t *testing.T) {
	r := sampleReport()
	r.Environment = Environment{}
	r.Changes = &Changes{
		Plan: &types.ResolutionPlan{Mode: types.ResolutionModeAutomatic, Changes: []types.PortChange{
			{ServiceName: "web", OldHostPort: 8080, NewHostPort: 9001, VariableName: "WEB_PORT", Target: types.ChangeTargetVariables, Protocol: "tcp"},
		}},
		UpdatedFiles: []string{".env"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewJSONPresenter().Present(&buf, r))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	env := got["environment"].(map[string]interface{})
	assert.Nil(t, env["env_file_path"])

	changes := got["changes"].(map[string]interface{})
	assert.Equal(t, "automatic", changes["mode"])
	assert.Equal(t, float64(1), changes["changed_ports"])
	assert.Equal(t, map[string]interface{}{"WEB_PORT": float64(9001)}, changes["env_changes"])
	assert.Equal(t, []interface{}{".env"}, changes["updated_files"])
	assert.Equal(t, []interface{}{}, changes["backups"])

	list := changes["changes"].([]interface{})
	first := list[0].(map[string]interface{})
	assert.Equal(t, "variables", first["target"])
	assert.Equal(t, float64(9001), first["new_port"])
}

func TestNewPresenter(t *testing.T) {
	p, err := NewPresenter(FormatJSON)
	require.NoError(t, err)
	assert.IsType(t, &JSONPresenter{}, p)

	p, err = NewPresenter("")
	require.NoError(t, err)
	assert.IsType(t, &TextPresenter{}, p)

	_, err = NewPresenter("xml")
	assert.Error(t, err)
}

func TestPortDisplay(t *testing.T) {
	assert.Equal(t, "8080/tcp", portDisplay(8080, 8080, "tcp"))
	assert.Equal(t, "8080:80/tcp", portDisplay(8080, 80, "tcp"))
	assert.Equal(t, "8080/tcp", portDisplay(8080, 0, "tcp"))
}
