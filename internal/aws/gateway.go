package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rglonek/logger"

	awsec2 "tasnim.dev/nat-convert/internal/aws/ec2"
	awsvpc "tasnim.dev/nat-convert/internal/aws/vpc"
	"tasnim.dev/nat-convert/internal/natconv"
)

// DefaultNamePrefix names the resources a run creates.
const DefaultNamePrefix = "nat-convert"

// Gateway implements natconv.ResourceGateway on top of the EC2 API.
type Gateway struct {
	vpc        *awsvpc.Client
	ec2        *awsec2.Client
	log        *logger.Logger
	namePrefix string
}

var _ natconv.ResourceGateway = (*Gateway)(nil)

func NewGateway(vpc *awsvpc.Client, ec2 *awsec2.Client, log *logger.Logger, namePrefix string) *Gateway {
	if log == nil {
		log = logger.NewLogger()
	}
	if namePrefix == "" {
		namePrefix = DefaultNamePrefix
	}
	return &Gateway{
		vpc:        vpc,
		ec2:        ec2,
		log:        log.WithPrefix("[aws] "),
		namePrefix: namePrefix,
	}
}

// NewGatewayFromClient wires a Gateway to a ServiceClient.
func NewGatewayFromClient(sc *ServiceClient, log *logger.Logger, namePrefix string) *Gateway {
	return NewGateway(sc.VPC, sc.EC2, log, namePrefix)
}

// resourceName names what a run creates for vpcID.
func (g *Gateway) resourceName(vpcID string) string {
	if vpcID == "" {
		return g.namePrefix
	}
	return g.namePrefix + "-" + vpcID
}

func (g *Gateway) ListNetworks(ctx context.Context) ([]natconv.Network, error) {
	vpcs, err := g.vpc.ListVPCs(ctx)
	if err != nil {
		return nil, err
	}
	g.log.Debug("DescribeVpcs returned %d VPCs", len(vpcs))
	networks := make([]natconv.Network, 0, len(vpcs))
	for _, v := range vpcs {
		networks = append(networks, natconv.Network{
			ID:        v.VPCID,
			CIDR:      v.CIDR,
			IsDefault: v.IsDefault,
			Name:      v.Name,
		})
	}
	return networks, nil
}

func toNatGateways(in []awsvpc.NATGatewayInfo) []natconv.NatGateway {
	out := make([]natconv.NatGateway, 0, len(in))
	for _, n := range in {
		out = append(out, natconv.NatGateway{
			ID:           n.GatewayID,
			SubnetID:     n.SubnetID,
			AllocationID: n.AllocationID,
			PublicIP:     n.ElasticIP,
			State:        n.State,
		})
	}
	return out
}

func (g *Gateway) ListNatGateways(ctx context.Context, vpcID string, states ...string) ([]natconv.NatGateway, error) {
	nats, err := g.vpc.ListNATGateways(ctx, vpcID, states...)
	if err != nil {
		return nil, err
	}
	g.log.Debug("DescribeNatGateways %s %v returned %d gateways", vpcID, states, len(nats))
	return toNatGateways(nats), nil
}

func (g *Gateway) ListRouteTables(ctx context.Context, vpcID string) ([]natconv.RouteTable, error) {
	rts, err := g.vpc.ListRouteTables(ctx, vpcID)
	if err != nil {
		return nil, err
	}
	g.log.Debug("DescribeRouteTables %s returned %d tables", vpcID, len(rts))

	tables := make([]natconv.RouteTable, 0, len(rts))
	for _, rt := range rts {
		table := natconv.RouteTable{ID: rt.RouteTableID}
		for _, r := range rt.Routes {
			table.Routes = append(table.Routes, natconv.Route{
				DestinationCIDR: r.Destination,
				GatewayID:       r.GatewayID,
				InstanceID:      r.InstanceID,
				NatGatewayID:    r.NatGatewayID,
			})
		}
		for _, a := range rt.Associations {
			table.Associations = append(table.Associations, natconv.Association{SubnetID: a.SubnetID})
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (g *Gateway) SourceDestCheck(ctx context.Context, instanceID string) (bool, error) {
	check, err := g.ec2.SourceDestCheck(ctx, instanceID)
	if errors.Is(err, awsec2.ErrSourceDestCheckMissing) {
		return false, fmt.Errorf("%s: %w", instanceID, natconv.ErrAttributeMissing)
	}
	if err != nil {
		return false, err
	}
	g.log.Detail("sourceDestCheck %s = %t", instanceID, check)
	return check, nil
}

func (g *Gateway) AllocateElasticIP(ctx context.Context, vpcID string) (string, error) {
	id, err := g.vpc.AllocateAddress(ctx, g.resourceName(vpcID))
	if err != nil {
		return "", err
	}
	g.log.Debug("allocated elastic IP %s", id)
	return id, nil
}

func (g *Gateway) CreateNatGateway(ctx context.Context, vpcID, subnetID, allocationID string) (string, error) {
	ng, err := g.vpc.CreateNATGateway(ctx, awsvpc.CreateNATGatewayInput{
		SubnetID:     subnetID,
		AllocationID: allocationID,
		Name:         g.resourceName(vpcID),
		ClientToken:  uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	g.log.Debug("created NAT gateway %s in %s (%s)", ng.GatewayID, subnetID, ng.State)
	return ng.GatewayID, nil
}

func (g *Gateway) DescribeNatGateway(ctx context.Context, vpcID, gatewayID string) ([]natconv.NatGateway, error) {
	nats, err := g.vpc.GetNATGateway(ctx, vpcID, gatewayID)
	if err != nil {
		return nil, err
	}
	return toNatGateways(nats), nil
}

func (g *Gateway) DeleteRoute(ctx context.Context, routeTableID, destinationCIDR string) error {
	g.log.Debug("DeleteRoute %s %s", routeTableID, destinationCIDR)
	return g.vpc.DeleteRoute(ctx, routeTableID, destinationCIDR)
}

func (g *Gateway) CreateRoute(ctx context.Context, routeTableID, destinationCIDR, natGatewayID string) error {
	g.log.Debug("CreateRoute %s %s -> %s", routeTableID, destinationCIDR, natGatewayID)
	return g.vpc.CreateNATRoute(ctx, routeTableID, destinationCIDR, natGatewayID)
}

func (g *Gateway) StopInstances(ctx context.Context, instanceIDs []string) error {
	g.log.Debug("StopInstances %v", instanceIDs)
	return g.ec2.StopInstances(ctx, instanceIDs)
}

func (g *Gateway) TerminateInstances(ctx context.Context, instanceIDs []string) error {
	g.log.Debug("TerminateInstances %v", instanceIDs)
	return g.ec2.TerminateInstances(ctx, instanceIDs)
}

// Instances describes the given instances for display. It is not part of the
// migration surface.
func (g *Gateway) Instances(ctx context.Context, ids []string) ([]awsec2.EC2Instance, error) {
	return g.ec2.DescribeInstances(ctx, ids)
}
