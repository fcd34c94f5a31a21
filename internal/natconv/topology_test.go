package natconv

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioTables() []RouteTable {
	return []RouteTable{
		{
			ID: "rtb-pub",
			Routes: []Route{
				{DestinationCIDR: "10.0.0.0/16", GatewayID: "local"},
				{DestinationCIDR: DefaultRouteCIDR, GatewayID: "igw-1"},
			},
			Associations: []Association{{}, {SubnetID: "subnet-pub1"}},
		},
		{
			ID: "rtb-priv",
			Routes: []Route{
				{DestinationCIDR: "10.0.0.0/16", GatewayID: "local"},
				{DestinationCIDR: DefaultRouteCIDR, InstanceID: "i-legacy1"},
			},
			Associations: []Association{{SubnetID: "subnet-priv1"}},
		},
	}
}

func TestClassify_PublicAndPrivate(t *testing.T) {
	topo := Classify(scenarioTables())

	assert.Equal(t, []PublicSubnet{{SubnetID: "subnet-pub1", RouteTableID: "rtb-pub"}}, topo.PublicSubnets)
	assert.Equal(t, []string{"subnet-priv1"}, topo.PrivateSubnetIDs)
	assert.Equal(t, []string{"rtb-priv"}, topo.PrivateRouteTableIDs)
	assert.Equal(t, []LegacyNatRoute{
		{RouteTableID: "rtb-priv", InstanceID: "i-legacy1", DestinationCIDR: DefaultRouteCIDR},
	}, topo.LegacyNatRoutes)
}

func TestClassify_RouteOrderIndependent(t *testing.T) {
	tables := scenarioTables()
	reversed := make([]RouteTable, len(tables))
	for i, rt := range tables {
		routes := slices.Clone(rt.Routes)
		slices.Reverse(routes)
		reversed[i] = RouteTable{ID: rt.ID, Routes: routes, Associations: rt.Associations}
	}

	a := Classify(tables)
	b := Classify(reversed)
	assert.Equal(t, a.PublicSubnets, b.PublicSubnets)
	assert.Equal(t, a.PrivateSubnetIDs, b.PrivateSubnetIDs)
	assert.Equal(t, a.PrivateRouteTableIDs, b.PrivateRouteTableIDs)
}

func TestClassify_Idempotent(t *testing.T) {
	tables := scenarioTables()
	first := Classify(tables)
	second := Classify(tables)
	assert.Equal(t, first, second)
	assert.Equal(t, scenarioTables(), tables, "input must not be mutated")
}

func TestClassify_DefaultRouteWithoutGatewayIsPrivate(t *testing.T) {
	topo := Classify([]RouteTable{{
		ID: "rtb-1",
		Routes: []Route{
			{DestinationCIDR: DefaultRouteCIDR, NatGatewayID: "nat-1"},
			{DestinationCIDR: "192.168.0.0/16", GatewayID: "vgw-1"},
		},
		Associations: []Association{{SubnetID: "subnet-a"}},
	}})
	assert.Empty(t, topo.PublicSubnets)
	assert.Equal(t, []string{"subnet-a"}, topo.PrivateSubnetIDs)
}

func TestClassify_UnassociatedTableStillYieldsNatRoutes(t *testing.T) {
	topo := Classify([]RouteTable{{
		ID:     "rtb-orphan",
		Routes: []Route{{DestinationCIDR: "172.16.0.0/12", InstanceID: "i-nat"}},
	}})
	require.Len(t, topo.LegacyNatRoutes, 1)
	assert.Equal(t, "rtb-orphan", topo.LegacyNatRoutes[0].RouteTableID)
	assert.Equal(t, "172.16.0.0/12", topo.LegacyNatRoutes[0].DestinationCIDR)
	assert.Empty(t, topo.PrivateSubnetIDs)
}

func TestClassify_MultipleNatRoutesInOneTable(t *testing.T) {
	topo := Classify([]RouteTable{{
		ID: "rtb-1",
		Routes: []Route{
			{DestinationCIDR: DefaultRouteCIDR, InstanceID: "i-a"},
			{DestinationCIDR: "198.51.100.0/24", InstanceID: "i-b"},
		},
	}})
	assert.Equal(t, []LegacyNatRoute{
		{RouteTableID: "rtb-1", InstanceID: "i-a", DestinationCIDR: DefaultRouteCIDR},
		{RouteTableID: "rtb-1", InstanceID: "i-b", DestinationCIDR: "198.51.100.0/24"},
	}, topo.LegacyNatRoutes)
}

func TestTopology_HasPublicSubnet(t *testing.T) {
	topo := Classify(scenarioTables())
	assert.True(t, topo.HasPublicSubnet("subnet-pub1"))
	assert.False(t, topo.HasPublicSubnet("subnet-priv1"))
}

func TestNetworkLabel(t *testing.T) {
	tests := []struct {
		name string
		n    Network
		want string
	}{
		{"plain", Network{ID: "vpc-1", CIDR: "10.0.0.0/16"}, "vpc-1 - 10.0.0.0/16"},
		{"default", Network{ID: "vpc-2", CIDR: "172.31.0.0/16", IsDefault: true}, "vpc-2 - 172.31.0.0/16 (Default VPC)"},
		{"named", Network{ID: "vpc-3", CIDR: "10.1.0.0/16", Name: "prod"}, "vpc-3 - 10.1.0.0/16 - prod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Label())
		})
	}
}

func TestParseDecommission(t *testing.T) {
	for _, d := range []Decommission{DecommissionNone, DecommissionStop, DecommissionTerminate} {
		got, err := ParseDecommission(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDecommission("reboot")
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "WAITING_READY", StateWaitingReady.String())
	assert.True(t, StateAborted.Terminal())
	assert.True(t, StateDone.Terminal())
	assert.False(t, StateCuttingOver.Terminal())
}
