package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionPlan_VariableUpdates(t *testing.T) {
	plan := &ResolutionPlan{Changes: []PortChange{
		{ServiceName: "web", NewHostPort: 9001, VariableName: "WEB_PORT", Target: ChangeTargetVariables},
		{ServiceName: "api", NewHostPort: 9002, Target: ChangeTargetDocument},
		{ServiceName: "proxy", NewHostPort: 9001, VariableName: "WEB_PORT", Target: ChangeTargetVariables},
	}}

	assert.Equal(t, []VariableUpdate{{Name: "WEB_PORT", Port: 9001}}, plan.VariableUpdates())
	assert.Len(t, plan.VariableChanges(), 2)
	assert.Len(t, plan.DocumentChanges(), 1)
	assert.False(t, plan.IsEmpty())
}

func TestResolutionPlan_Nil(t *testing.T) {
	var plan *ResolutionPlan
	assert.True(t, plan.IsEmpty())
	assert.Nil(t, plan.DocumentChanges())
	assert.Empty(t, plan.VariableUpdates())
}

func TestPortRange(t *testing.T) {
	r := PortRange{Start: 8000, End: 8009}
	assert.True(t, r.Contains(8000))
	assert.True(t, r.Contains(8009))
	assert.False(t, r.Contains(8010))
	assert.Equal(t, 10, r.Size())
	assert.Equal(t, "8000-8009", r.String())
	assert.Equal(t, 0, PortRange{Start: 9, End: 1}.Size())
}

func TestInUseMappings(t *testing.T) {
	services := []ServicePorts{
		{Name: "web", Ports: []PortMapping{
			{HostPort: 8080, Availability: AvailabilityInUse},
			{HostPort: 8081, Availability: AvailabilityAvailable},
		}},
		{Name: "db", Ports: []PortMapping{
			{HostPort: 5432, Availability: AvailabilityUnknown},
		}},
	}

	assert.Equal(t, 3, CountPorts(services))
	got := InUseMappings(services)
	assert.Len(t, got, 1)
	assert.Equal(t, 8080, got[0].HostPort)
}
