package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rglonek/logger"

	awsec2 "tasnim.dev/nat-convert/internal/aws/ec2"
	awsvpc "tasnim.dev/nat-convert/internal/aws/vpc"
	"tasnim.dev/nat-convert/internal/natconv"
)

// fakeEC2 serves both the VPC and instance halves of the EC2 API. Unset
// funcs return empty outputs.
type fakeEC2 struct {
	vpcs        []types.Vpc
	routeTables []types.RouteTable
	natGateways []types.NatGateway
	srcDst      *types.AttributeBooleanValue

	createNatGatewayInput *ec2.CreateNatGatewayInput
	allocateInput         *ec2.AllocateAddressInput
	createRouteInput      *ec2.CreateRouteInput
	stopped               []string
}

func (f *fakeEC2) DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	return &ec2.DescribeVpcsOutput{Vpcs: f.vpcs}, nil
}

func (f *fakeEC2) DescribeRouteTables(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	return &ec2.DescribeRouteTablesOutput{RouteTables: f.routeTables}, nil
}

func (f *fakeEC2) DescribeNatGateways(ctx context.Context, params *ec2.DescribeNatGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error) {
	return &ec2.DescribeNatGatewaysOutput{NatGateways: f.natGateways}, nil
}

func (f *fakeEC2) AllocateAddress(ctx context.Context, params *ec2.AllocateAddressInput, optFns ...func(*ec2.Options)) (*ec2.AllocateAddressOutput, error) {
	f.allocateInput = params
	return &ec2.AllocateAddressOutput{AllocationId: awssdk.String("eipalloc-1")}, nil
}

func (f *fakeEC2) CreateNatGateway(ctx context.Context, params *ec2.CreateNatGatewayInput, optFns ...func(*ec2.Options)) (*ec2.CreateNatGatewayOutput, error) {
	f.createNatGatewayInput = params
	return &ec2.CreateNatGatewayOutput{NatGateway: &types.NatGateway{
		NatGatewayId: awssdk.String("nat-1"),
		SubnetId:     params.SubnetId,
		State:        types.NatGatewayStatePending,
	}}, nil
}

func (f *fakeEC2) CreateRoute(ctx context.Context, params *ec2.CreateRouteInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
	f.createRouteInput = params
	return &ec2.CreateRouteOutput{Return: awssdk.Bool(true)}, nil
}

func (f *fakeEC2) DeleteRoute(ctx context.Context, params *ec2.DeleteRouteInput, optFns ...func(*ec2.Options)) (*ec2.DeleteRouteOutput, error) {
	return &ec2.DeleteRouteOutput{}, nil
}

func (f *fakeEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return &ec2.DescribeInstancesOutput{}, nil
}

func (f *fakeEC2) DescribeInstanceAttribute(ctx context.Context, params *ec2.DescribeInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceAttributeOutput, error) {
	return &ec2.DescribeInstanceAttributeOutput{SourceDestCheck: f.srcDst}, nil
}

func (f *fakeEC2) StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.stopped = append(f.stopped, params.InstanceIds...)
	return &ec2.StopInstancesOutput{}, nil
}

func (f *fakeEC2) TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	return &ec2.TerminateInstancesOutput{}, nil
}

func newTestGateway(f *fakeEC2, prefix string) *Gateway {
	log := logger.NewLogger()
	log.SinkDisableStderr()
	return NewGateway(awsvpc.NewClient(f), awsec2.NewClient(f), log, prefix)
}

func TestGateway_ListNetworks(t *testing.T) {
	f := &fakeEC2{vpcs: []types.Vpc{{
		VpcId:     awssdk.String("vpc-1"),
		CidrBlock: awssdk.String("10.0.0.0/16"),
		IsDefault: awssdk.Bool(true),
		Tags:      []types.Tag{{Key: awssdk.String("Name"), Value: awssdk.String("main")}},
	}}}

	networks, err := newTestGateway(f, "").ListNetworks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := natconv.Network{ID: "vpc-1", CIDR: "10.0.0.0/16", IsDefault: true, Name: "main"}
	if len(networks) != 1 || networks[0] != want {
		t.Errorf("networks = %+v, want [%+v]", networks, want)
	}
}

func TestGateway_ListRouteTables(t *testing.T) {
	f := &fakeEC2{routeTables: []types.RouteTable{{
		RouteTableId: awssdk.String("rtb-priv"),
		Routes: []types.Route{{
			DestinationCidrBlock: awssdk.String("0.0.0.0/0"),
			InstanceId:           awssdk.String("i-nat"),
			NetworkInterfaceId:   awssdk.String("eni-1"),
		}},
		Associations: []types.RouteTableAssociation{{SubnetId: awssdk.String("subnet-priv")}},
	}}}

	tables, err := newTestGateway(f, "").ListRouteTables(context.Background(), "vpc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != 1 || tables[0].ID != "rtb-priv" {
		t.Fatalf("tables = %+v", tables)
	}
	r := tables[0].Routes[0]
	if r.InstanceID != "i-nat" || r.GatewayID != "" || r.DestinationCIDR != "0.0.0.0/0" {
		t.Errorf("route = %+v", r)
	}

	topo := natconv.Classify(tables)
	if len(topo.LegacyNatRoutes) != 1 || topo.LegacyNatRoutes[0].InstanceID != "i-nat" {
		t.Errorf("legacy routes = %+v", topo.LegacyNatRoutes)
	}
}

func TestGateway_SourceDestCheckMissing(t *testing.T) {
	g := newTestGateway(&fakeEC2{}, "")
	_, err := g.SourceDestCheck(context.Background(), "i-1")
	if !errors.Is(err, natconv.ErrAttributeMissing) {
		t.Errorf("err = %v, want ErrAttributeMissing", err)
	}

	g = newTestGateway(&fakeEC2{srcDst: &types.AttributeBooleanValue{Value: awssdk.Bool(false)}}, "")
	check, err := g.SourceDestCheck(context.Background(), "i-1")
	if err != nil || check {
		t.Errorf("check, err = %v, %v; want false, nil", check, err)
	}
}

func TestGateway_CreateNatGatewayNamesResources(t *testing.T) {
	f := &fakeEC2{}
	g := newTestGateway(f, "migrate")
	ctx := context.Background()

	// Listing another VPC must not change what the created resources are named.
	if _, err := g.ListRouteTables(ctx, "vpc-other"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alloc, err := g.AllocateElasticIP(ctx, "vpc-9")
	if err != nil || alloc != "eipalloc-1" {
		t.Fatalf("AllocateElasticIP = %s, %v", alloc, err)
	}
	id, err := g.CreateNatGateway(ctx, "vpc-9", "subnet-pub", alloc)
	if err != nil || id != "nat-1" {
		t.Fatalf("CreateNatGateway = %s, %v", id, err)
	}

	in := f.createNatGatewayInput
	if awssdk.ToString(in.ClientToken) == "" {
		t.Error("expected a client token")
	}
	if awssdk.ToString(in.AllocationId) != "eipalloc-1" {
		t.Errorf("AllocationId = %s", awssdk.ToString(in.AllocationId))
	}
	name := awssdk.ToString(in.TagSpecifications[0].Tags[0].Value)
	if name != "migrate-vpc-9" {
		t.Errorf("gateway name = %s, want migrate-vpc-9", name)
	}
	eipName := awssdk.ToString(f.allocateInput.TagSpecifications[0].Tags[0].Value)
	if eipName != "migrate-vpc-9" {
		t.Errorf("elastic IP name = %s, want migrate-vpc-9", eipName)
	}
}

func TestGateway_RoutesAndInstances(t *testing.T) {
	f := &fakeEC2{natGateways: []types.NatGateway{{
		NatGatewayId: awssdk.String("nat-1"),
		State:        types.NatGatewayStateAvailable,
		NatGatewayAddresses: []types.NatGatewayAddress{{
			AllocationId: awssdk.String("eipalloc-1"),
			PublicIp:     awssdk.String("54.1.2.3"),
		}},
	}}}
	g := newTestGateway(f, "")
	ctx := context.Background()

	nats, err := g.DescribeNatGateway(ctx, "vpc-1", "nat-1")
	if err != nil || len(nats) != 1 || nats[0].State != natconv.GatewayStateAvailable {
		t.Fatalf("DescribeNatGateway = %+v, %v", nats, err)
	}
	if nats[0].PublicIP != "54.1.2.3" || nats[0].AllocationID != "eipalloc-1" {
		t.Errorf("PublicIP/AllocationID = %s/%s", nats[0].PublicIP, nats[0].AllocationID)
	}
	if err := g.DeleteRoute(ctx, "rtb-1", "0.0.0.0/0"); err != nil {
		t.Fatalf("DeleteRoute: %v", err)
	}
	if err := g.CreateRoute(ctx, "rtb-1", "0.0.0.0/0", "nat-1"); err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}
	if awssdk.ToString(f.createRouteInput.NatGatewayId) != "nat-1" {
		t.Errorf("NatGatewayId = %s", awssdk.ToString(f.createRouteInput.NatGatewayId))
	}
	if err := g.StopInstances(ctx, []string{"i-1"}); err != nil {
		t.Fatalf("StopInstances: %v", err)
	}
	if len(f.stopped) != 1 || f.stopped[0] != "i-1" {
		t.Errorf("stopped = %v", f.stopped)
	}
}
