package report

import (
	"encoding/json"
	"io"

	"github.com/harakeishi/composeports/pkg/types"
)

// JSONPresenter は機械処理向けのJSONレポートを出力します。
type JSONPresenter struct{}

// NewJSONPresenter は新しいJSONPresenterを作成します。
func NewJSONPresenter() *JSONPresenter {
	return &JSONPresenter{}
}

type jsonReport struct {
	ComposeFile string          `json:"compose_file"`
	Summary     jsonSummary     `json:"summary"`
	Services    []jsonService   `json:"services"`
	Environment jsonEnvironment `json:"environment"`
	Changes     *jsonChanges    `json:"changes,omitempty"`
}

type jsonSummary struct {
	TotalServices int `json:"total_services"`
	TotalPorts    int `json:"total_ports"`
	PortsInUse    int `json:"ports_in_use"`
}

type jsonService struct {
	Name  string     `json:"name"`
	Image string     `json:"image"`
	Ports []jsonPort `json:"ports"`
}

type jsonPort struct {
	HostPort        int                   `json:"host_port"`
	ContainerPort   *int                  `json:"container_port"`
	Protocol        string                `json:"protocol"`
	Available       bool                  `json:"available"`
	Availability    types.Availability    `json:"availability"`
	Process         *types.ProcessOwner   `json:"process"`
	DockerContainer *types.ContainerOwner `json:"docker_container"`
	EnvVar          *string               `json:"env_var"`
	OriginalMapping interface{}           `json:"original_mapping"`
}

type jsonEnvironment struct {
	UsesEnvVars     bool     `json:"uses_env_vars"`
	EnvFilePath     *string  `json:"env_file_path"`
	EnvVarsDetected []string `json:"env_vars_detected"`
	EnvVarsLoaded   int      `json:"env_vars_loaded"`
	EnvVarsMissing  []string `json:"env_vars_missing"`
}

type jsonChanges struct {
	Mode         types.ResolutionMode `json:"mode"`
	ChangedPorts int                  `json:"changed_ports"`
	Changes      []types.PortChange   `json:"changes"`
	EnvChanges   map[string]int       `json:"env_changes"`
	UpdatedFiles []string             `json:"updated_files"`
	Backups      []string             `json:"backups"`
}

// Present はレポートをインデント付きのJSONとして書き出します。
func (p *JSONPresenter) Present(w io.Writer, r *Report) error {
	out := jsonReport{
		ComposeFile: r.ComposeFile,
		Summary: jsonSummary{
			TotalServices: len(r.Services),
			TotalPorts:    types.CountPorts(r.Services),
			PortsInUse:    r.InUseCount(),
		},
		Services: make([]jsonService, 0, len(r.Services)),
		Environment: jsonEnvironment{
			UsesEnvVars:     r.Environment.UsesEnvVars,
			EnvFilePath:     optionalString(r.Environment.EnvFilePath),
			EnvVarsDetected: nonNil(r.Environment.EnvVarsDetected),
			EnvVarsLoaded:   r.Environment.EnvVarsLoaded,
			EnvVarsMissing:  nonNil(r.Environment.EnvVarsMissing),
		},
	}

	for _, s := range r.Services {
		service := jsonService{Name: s.Name, Image: s.Image, Ports: make([]jsonPort, 0, len(s.Ports))}
		for _, m := range s.Ports {
			port := jsonPort{
				HostPort:        m.HostPort,
				Protocol:        m.Protocol,
				Available:       !m.InUse(),
				Availability:    m.Availability,
				EnvVar:          optionalString(m.VariableName),
				OriginalMapping: m.Original,
			}
			if m.ContainerPort != 0 {
				containerPort := m.ContainerPort
				port.ContainerPort = &containerPort
			}
			if m.Owner != nil {
				port.Process = m.Owner.Process
				port.DockerContainer = m.Owner.Container
			}
			service.Ports = append(service.Ports, port)
		}
		out.Services = append(out.Services, service)
	}

	if c := r.Changes; c != nil {
		changes := &jsonChanges{
			Changes:      []types.PortChange{},
			EnvChanges:   map[string]int{},
			UpdatedFiles: nonNil(c.UpdatedFiles),
			Backups:      nonNil(c.Backups),
		}
		if c.Plan != nil {
			changes.Mode = c.Plan.Mode
			changes.ChangedPorts = len(c.Plan.Changes)
			changes.Changes = append(changes.Changes, c.Plan.Changes...)
			for _, u := range c.Plan.VariableUpdates() {
				changes.EnvChanges[u.Name] = u.Port
			}
		}
		out.Changes = changes
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
