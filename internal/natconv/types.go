package natconv

import (
	"context"
	"fmt"
)

// DefaultRouteCIDR is the IPv4 default route destination.
const DefaultRouteCIDR = "0.0.0.0/0"

// NAT gateway lifecycle states reported by the provider.
const (
	GatewayStatePending   = "pending"
	GatewayStateAvailable = "available"
	GatewayStateDeleting  = "deleting"
	GatewayStateDeleted   = "deleted"
	GatewayStateFailed    = "failed"
)

// ResourceGateway is the provider surface the migration needs. Implementations
// perform no retries of their own beyond what the provider SDK does.
type ResourceGateway interface {
	ListNetworks(ctx context.Context) ([]Network, error)
	ListNatGateways(ctx context.Context, vpcID string, states ...string) ([]NatGateway, error)
	ListRouteTables(ctx context.Context, vpcID string) ([]RouteTable, error)
	// SourceDestCheck returns the instance's source/destination check flag.
	// A missing attribute is reported as ErrAttributeMissing.
	SourceDestCheck(ctx context.Context, instanceID string) (bool, error)
	// AllocateElasticIP and CreateNatGateway take the VPC the resources are
	// created for so implementations can tag them.
	AllocateElasticIP(ctx context.Context, vpcID string) (string, error)
	CreateNatGateway(ctx context.Context, vpcID, subnetID, allocationID string) (string, error)
	// DescribeNatGateway returns every gateway matching the id within the VPC.
	DescribeNatGateway(ctx context.Context, vpcID, gatewayID string) ([]NatGateway, error)
	DeleteRoute(ctx context.Context, routeTableID, destinationCIDR string) error
	CreateRoute(ctx context.Context, routeTableID, destinationCIDR, natGatewayID string) error
	StopInstances(ctx context.Context, instanceIDs []string) error
	TerminateInstances(ctx context.Context, instanceIDs []string) error
}

// Network is a VPC as presented for selection.
type Network struct {
	ID        string
	CIDR      string
	IsDefault bool
	Name      string
}

// Label renders the network the way it is listed to the operator.
func (n Network) Label() string {
	label := n.ID + " - " + n.CIDR
	if n.IsDefault {
		label += " (Default VPC)"
	}
	if n.Name != "" {
		label += " - " + n.Name
	}
	return label
}

type RouteTable struct {
	ID           string
	Routes       []Route
	Associations []Association
}

// Route carries at most one of the target identifiers.
type Route struct {
	DestinationCIDR string
	GatewayID       string
	InstanceID      string
	NatGatewayID    string
}

// Association binds a route table to a subnet. The VPC's main association
// has no explicit subnet and an empty SubnetID.
type Association struct {
	SubnetID string
}

// LegacyNatRoute is a route that sends traffic through a NAT instance.
type LegacyNatRoute struct {
	RouteTableID    string
	InstanceID      string
	DestinationCIDR string
}

func (r LegacyNatRoute) String() string {
	return fmt.Sprintf("%s %s -> %s", r.RouteTableID, r.DestinationCIDR, r.InstanceID)
}

type NatGateway struct {
	ID           string
	SubnetID     string
	AllocationID string
	// PublicIP is the elastic IP's address once AWS has associated it.
	PublicIP     string
	State        string
}

// PublicSubnet is a subnet whose route table has a default route to an
// internet gateway, making it a candidate for the new NAT gateway.
type PublicSubnet struct {
	SubnetID     string
	RouteTableID string
}

// Topology is the public/private classification of one VPC's routing.
type Topology struct {
	PublicSubnets        []PublicSubnet
	PrivateSubnetIDs     []string
	LegacyNatRoutes      []LegacyNatRoute
	PrivateRouteTableIDs []string
}

// HasPublicSubnet reports whether subnetID is one of the public candidates.
func (t Topology) HasPublicSubnet(subnetID string) bool {
	for _, s := range t.PublicSubnets {
		if s.SubnetID == subnetID {
			return true
		}
	}
	return false
}

// Plan is what a run intends to do, captured after validation.
type Plan struct {
	Network     Network
	Topology    Topology
	Convertible []LegacyNatRoute
	// Skipped holds NAT routes whose instance still has source/destination
	// checking enabled.
	Skipped []LegacyNatRoute
}

// InstanceIDs returns the distinct instance ids of the convertible routes in
// first-seen order.
func (p Plan) InstanceIDs() []string {
	return uniqueInstanceIDs(p.Convertible)
}

func uniqueInstanceIDs(routes []LegacyNatRoute) []string {
	seen := make(map[string]bool, len(routes))
	var ids []string
	for _, r := range routes {
		if seen[r.InstanceID] {
			continue
		}
		seen[r.InstanceID] = true
		ids = append(ids, r.InstanceID)
	}
	return ids
}

// RouteResult is the outcome of cutting one (route table, destination) pair
// over to the new gateway. The delete and create steps are reported separately.
type RouteResult struct {
	Route     LegacyNatRoute
	Deleted   bool
	Created   bool
	DeleteErr error
	CreateErr error
}

func (r RouteResult) OK() bool {
	return r.Deleted && r.Created
}

// Decommission is the operator's choice for the replaced NAT instances.
type Decommission int

const (
	DecommissionNone Decommission = iota
	DecommissionStop
	DecommissionTerminate
)

func (d Decommission) String() string {
	switch d {
	case DecommissionStop:
		return "stop"
	case DecommissionTerminate:
		return "terminate"
	default:
		return "none"
	}
}

// ParseDecommission accepts the String form of a Decommission.
func ParseDecommission(s string) (Decommission, error) {
	switch s {
	case "stop":
		return DecommissionStop, nil
	case "terminate":
		return DecommissionTerminate, nil
	case "none", "":
		return DecommissionNone, nil
	}
	return DecommissionNone, fmt.Errorf("unknown decommission action %q (want stop, terminate or none)", s)
}

type InstanceResult struct {
	InstanceID string
	Action     Decommission
	Err        error
}
