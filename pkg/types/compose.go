package types

// DefaultImage はイメージ指定のないサービスの表示用イメージ名です。
const DefaultImage = "N/A"

// ServicePorts はサービス単位のポート指定をドキュメント順に保持します。
type ServicePorts struct {
	Name  string        `json:"name"`
	Image string        `json:"image"`
	Ports []PortMapping `json:"ports"`
}

// CountPorts は全サービスのポート指定数を返します。
func CountPorts(services []ServicePorts) int {
	total := 0
	for _, s := range services {
		total += len(s.Ports)
	}
	return total
}

// InUseMappings は使用中と判定されたポート指定をドキュメント順に返します。
func InUseMappings(services []ServicePorts) []PortMapping {
	var result []PortMapping
	for _, s := range services {
		for _, p := range s.Ports {
			if p.InUse() {
				result = append(result, p)
			}
		}
	}
	return result
}
