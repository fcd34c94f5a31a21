package natconv

import (
	"context"
	"fmt"
)

// Classify splits route tables into public and private subnets and collects
// every route that targets an instance. A table is public iff one of its
// routes sends the default route to a gateway; route order does not matter.
func Classify(tables []RouteTable) Topology {
	var topo Topology
	for _, rt := range tables {
		public := isPublic(rt)
		if !public {
			topo.PrivateRouteTableIDs = append(topo.PrivateRouteTableIDs, rt.ID)
		}

		for _, assoc := range rt.Associations {
			if assoc.SubnetID == "" {
				continue
			}
			if public {
				topo.PublicSubnets = append(topo.PublicSubnets, PublicSubnet{
					SubnetID:     assoc.SubnetID,
					RouteTableID: rt.ID,
				})
			} else {
				topo.PrivateSubnetIDs = append(topo.PrivateSubnetIDs, assoc.SubnetID)
			}
		}

		// Tables without associations still count here.
		for _, r := range rt.Routes {
			if r.InstanceID == "" {
				continue
			}
			topo.LegacyNatRoutes = append(topo.LegacyNatRoutes, LegacyNatRoute{
				RouteTableID:    rt.ID,
				InstanceID:      r.InstanceID,
				DestinationCIDR: r.DestinationCIDR,
			})
		}
	}
	return topo
}

func isPublic(rt RouteTable) bool {
	for _, r := range rt.Routes {
		if r.DestinationCIDR == DefaultRouteCIDR && r.GatewayID != "" {
			return true
		}
	}
	return false
}

// Analyzer derives topology and eligibility from live provider state. It keeps
// nothing between calls.
type Analyzer struct {
	gw ResourceGateway
}

func NewAnalyzer(gw ResourceGateway) *Analyzer {
	return &Analyzer{gw: gw}
}

// Topology fetches the VPC's route tables and classifies them.
func (a *Analyzer) Topology(ctx context.Context, vpcID string) (Topology, error) {
	tables, err := a.gw.ListRouteTables(ctx, vpcID)
	if err != nil {
		return Topology{}, fmt.Errorf("listing route tables for %s: %w", vpcID, err)
	}
	return Classify(tables), nil
}
