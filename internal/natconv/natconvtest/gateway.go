// Package natconvtest provides an in-memory natconv.ResourceGateway.
package natconvtest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"tasnim.dev/nat-convert/internal/natconv"
)

var (
	ErrRouteExists   = errors.New("RouteAlreadyExists")
	ErrRouteNotFound = errors.New("InvalidRoute.NotFound")
)

// Gateway keeps route tables in memory and applies route mutations to them,
// so tests can inspect the routing that results from a run.
type Gateway struct {
	Networks    []natconv.Network
	RouteTables map[string][]natconv.RouteTable
	// Existing NAT gateways per VPC, returned by ListNatGateways.
	Existing map[string][]natconv.NatGateway
	// SrcDstCheck per instance; an absent entry yields ErrAttributeMissing.
	SrcDstCheck map[string]bool
	// States is the sequence DescribeNatGateway walks through for the created
	// gateway. The last state repeats.
	States []string
	// Errors injects failures keyed by Key(op, target).
	Errors map[string]error

	NextGatewayID    string
	NextAllocationID string
	// NextPublicIP is reported for an available gateway with an allocation.
	NextPublicIP string

	Calls      []string
	Created    []natconv.NatGateway
	Stopped    []string
	Terminated []string
	describes  int
}

// Key builds the Errors map key for an operation on a target.
func Key(op, target string) string {
	return op + " " + target
}

func New() *Gateway {
	return &Gateway{
		RouteTables:      map[string][]natconv.RouteTable{},
		Existing:         map[string][]natconv.NatGateway{},
		SrcDstCheck:      map[string]bool{},
		Errors:           map[string]error{},
		States:           []string{natconv.GatewayStateAvailable},
		NextGatewayID:    "nat-0new",
		NextAllocationID: "eipalloc-0new",
		NextPublicIP:     "203.0.113.10",
	}
}

// record logs the call and returns its injected error. A cancelled ctx fails
// the call the way an SDK request would.
func (g *Gateway) record(ctx context.Context, op, target string) error {
	g.Calls = append(g.Calls, Key(op, target))
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.Errors[Key(op, target)]
}

// Count returns how many times op was called on any target.
func (g *Gateway) Count(op string) int {
	n := 0
	for _, c := range g.Calls {
		if len(c) > len(op) && c[:len(op)+1] == op+" " {
			n++
		}
	}
	return n
}

func (g *Gateway) ListNetworks(ctx context.Context) ([]natconv.Network, error) {
	if err := g.record(ctx, "ListNetworks", ""); err != nil {
		return nil, err
	}
	return slices.Clone(g.Networks), nil
}

func (g *Gateway) ListNatGateways(ctx context.Context, vpcID string, states ...string) ([]natconv.NatGateway, error) {
	if err := g.record(ctx, "ListNatGateways", vpcID); err != nil {
		return nil, err
	}
	var out []natconv.NatGateway
	for _, gw := range g.Existing[vpcID] {
		if len(states) == 0 || slices.Contains(states, gw.State) {
			out = append(out, gw)
		}
	}
	return out, nil
}

// ListRouteTables returns deep copies so callers never share state with the
// fake's routing.
func (g *Gateway) ListRouteTables(ctx context.Context, vpcID string) ([]natconv.RouteTable, error) {
	if err := g.record(ctx, "ListRouteTables", vpcID); err != nil {
		return nil, err
	}
	tables := g.RouteTables[vpcID]
	out := make([]natconv.RouteTable, 0, len(tables))
	for _, rt := range tables {
		out = append(out, natconv.RouteTable{
			ID:           rt.ID,
			Routes:       slices.Clone(rt.Routes),
			Associations: slices.Clone(rt.Associations),
		})
	}
	return out, nil
}

func (g *Gateway) SourceDestCheck(ctx context.Context, instanceID string) (bool, error) {
	if err := g.record(ctx, "SourceDestCheck", instanceID); err != nil {
		return false, err
	}
	v, ok := g.SrcDstCheck[instanceID]
	if !ok {
		return false, fmt.Errorf("%s: %w", instanceID, natconv.ErrAttributeMissing)
	}
	return v, nil
}

func (g *Gateway) AllocateElasticIP(ctx context.Context, vpcID string) (string, error) {
	if err := g.record(ctx, "AllocateElasticIP", vpcID); err != nil {
		return "", err
	}
	return g.NextAllocationID, nil
}

func (g *Gateway) CreateNatGateway(ctx context.Context, vpcID, subnetID, allocationID string) (string, error) {
	if err := g.record(ctx, "CreateNatGateway", subnetID); err != nil {
		return "", err
	}
	g.Created = append(g.Created, natconv.NatGateway{
		ID:           g.NextGatewayID,
		SubnetID:     subnetID,
		AllocationID: allocationID,
		State:        natconv.GatewayStatePending,
	})
	return g.NextGatewayID, nil
}

func (g *Gateway) DescribeNatGateway(ctx context.Context, vpcID, gatewayID string) ([]natconv.NatGateway, error) {
	if err := g.record(ctx, "DescribeNatGateway", gatewayID); err != nil {
		return nil, err
	}
	var out []natconv.NatGateway
	for _, c := range g.Created {
		if c.ID != gatewayID {
			continue
		}
		if len(g.States) > 0 {
			c.State = g.States[min(g.describes, len(g.States)-1)]
		}
		if c.State == natconv.GatewayStateAvailable && c.AllocationID != "" {
			c.PublicIP = g.NextPublicIP
		}
		out = append(out, c)
	}
	g.describes++
	return out, nil
}

func (g *Gateway) DeleteRoute(ctx context.Context, routeTableID, destinationCIDR string) error {
	if err := g.record(ctx, "DeleteRoute", routeTableID+" "+destinationCIDR); err != nil {
		return err
	}
	rt := g.table(routeTableID)
	if rt == nil {
		return fmt.Errorf("%s: %w", routeTableID, ErrRouteNotFound)
	}
	i := slices.IndexFunc(rt.Routes, func(r natconv.Route) bool { return r.DestinationCIDR == destinationCIDR })
	if i < 0 {
		return fmt.Errorf("%s %s: %w", routeTableID, destinationCIDR, ErrRouteNotFound)
	}
	rt.Routes = slices.Delete(rt.Routes, i, i+1)
	return nil
}

func (g *Gateway) CreateRoute(ctx context.Context, routeTableID, destinationCIDR, natGatewayID string) error {
	if err := g.record(ctx, "CreateRoute", routeTableID+" "+destinationCIDR); err != nil {
		return err
	}
	rt := g.table(routeTableID)
	if rt == nil {
		return fmt.Errorf("%s: %w", routeTableID, ErrRouteNotFound)
	}
	for _, r := range rt.Routes {
		if r.DestinationCIDR == destinationCIDR {
			return fmt.Errorf("%s %s: %w", routeTableID, destinationCIDR, ErrRouteExists)
		}
	}
	rt.Routes = append(rt.Routes, natconv.Route{DestinationCIDR: destinationCIDR, NatGatewayID: natGatewayID})
	return nil
}

func (g *Gateway) StopInstances(ctx context.Context, instanceIDs []string) error {
	for _, id := range instanceIDs {
		if err := g.record(ctx, "StopInstances", id); err != nil {
			return err
		}
	}
	g.Stopped = append(g.Stopped, instanceIDs...)
	return nil
}

func (g *Gateway) TerminateInstances(ctx context.Context, instanceIDs []string) error {
	for _, id := range instanceIDs {
		if err := g.record(ctx, "TerminateInstances", id); err != nil {
			return err
		}
	}
	g.Terminated = append(g.Terminated, instanceIDs...)
	return nil
}

// Routes returns every route for (routeTableID, destinationCIDR).
func (g *Gateway) Routes(routeTableID, destinationCIDR string) []natconv.Route {
	rt := g.table(routeTableID)
	if rt == nil {
		return nil
	}
	var out []natconv.Route
	for _, r := range rt.Routes {
		if r.DestinationCIDR == destinationCIDR {
			out = append(out, r)
		}
	}
	return out
}

func (g *Gateway) table(id string) *natconv.RouteTable {
	for vpc := range g.RouteTables {
		for i := range g.RouteTables[vpc] {
			if g.RouteTables[vpc][i].ID == id {
				return &g.RouteTables[vpc][i]
			}
		}
	}
	return nil
}

// ScenarioA builds a VPC with one public table (igw default route, subnet-pub1)
// and one private table routing the default route via i-legacy1 (subnet-priv1).
func ScenarioA(check bool) *Gateway {
	g := New()
	g.Networks = []natconv.Network{{ID: "vpc-1", CIDR: "10.0.0.0/16", Name: "main"}}
	g.RouteTables["vpc-1"] = []natconv.RouteTable{
		{
			ID: "rtb-pub",
			Routes: []natconv.Route{
				{DestinationCIDR: "10.0.0.0/16", GatewayID: "local"},
				{DestinationCIDR: natconv.DefaultRouteCIDR, GatewayID: "igw-1"},
			},
			Associations: []natconv.Association{{SubnetID: "subnet-pub1"}},
		},
		{
			ID: "rtb-priv",
			Routes: []natconv.Route{
				{DestinationCIDR: "10.0.0.0/16", GatewayID: "local"},
				{DestinationCIDR: natconv.DefaultRouteCIDR, InstanceID: "i-legacy1"},
			},
			Associations: []natconv.Association{{SubnetID: "subnet-priv1"}},
		},
	}
	g.SrcDstCheck["i-legacy1"] = check
	return g
}
