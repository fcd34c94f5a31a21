package vpc

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"tasnim.dev/nat-convert/internal/aws/apierr"
)

type VPCAPI interface {
	DescribeVpcs(ctx context.Context, params *awsec2.DescribeVpcsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpcsOutput, error)
	DescribeRouteTables(ctx context.Context, params *awsec2.DescribeRouteTablesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeRouteTablesOutput, error)
	DescribeNatGateways(ctx context.Context, params *awsec2.DescribeNatGatewaysInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeNatGatewaysOutput, error)
	AllocateAddress(ctx context.Context, params *awsec2.AllocateAddressInput, optFns ...func(*awsec2.Options)) (*awsec2.AllocateAddressOutput, error)
	CreateNatGateway(ctx context.Context, params *awsec2.CreateNatGatewayInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateNatGatewayOutput, error)
	CreateRoute(ctx context.Context, params *awsec2.CreateRouteInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateRouteOutput, error)
	DeleteRoute(ctx context.Context, params *awsec2.DeleteRouteInput, optFns ...func(*awsec2.Options)) (*awsec2.DeleteRouteOutput, error)
}

type Client struct {
	api VPCAPI
}

func NewClient(api VPCAPI) *Client {
	return &Client{api: api}
}

func nameFromTags(tags []types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}

func nameTags(resource types.ResourceType, name string) []types.TagSpecification {
	if name == "" {
		return nil
	}
	return []types.TagSpecification{{
		ResourceType: resource,
		Tags:         []types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
	}}
}

func (c *Client) ListVPCs(ctx context.Context) ([]VPCInfo, error) {
	var vpcs []VPCInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeVpcs(ctx, &awsec2.DescribeVpcsInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeVpcs: %w", err)
		}

		for _, v := range out.Vpcs {
			vpcs = append(vpcs, VPCInfo{
				VPCID:     aws.ToString(v.VpcId),
				Name:      nameFromTags(v.Tags),
				CIDR:      aws.ToString(v.CidrBlock),
				IsDefault: aws.ToBool(v.IsDefault),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return vpcs, nil
}

func (c *Client) ListRouteTables(ctx context.Context, vpcID string) ([]RouteTableInfo, error) {
	var rts []RouteTableInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeRouteTables(ctx, &awsec2.DescribeRouteTablesInput{
			Filters: []types.Filter{
				{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeRouteTables: %w", err)
		}

		for _, rt := range out.RouteTables {
			info := RouteTableInfo{RouteTableID: aws.ToString(rt.RouteTableId)}
			for _, r := range rt.Routes {
				dest := aws.ToString(r.DestinationCidrBlock)
				if dest == "" {
					dest = aws.ToString(r.DestinationIpv6CidrBlock)
				}
				if dest == "" {
					dest = aws.ToString(r.DestinationPrefixListId)
				}
				info.Routes = append(info.Routes, RouteEntry{
					Destination:  dest,
					GatewayID:    aws.ToString(r.GatewayId),
					InstanceID:   aws.ToString(r.InstanceId),
					NatGatewayID: aws.ToString(r.NatGatewayId),
				})
			}
			for _, a := range rt.Associations {
				if a.SubnetId == nil {
					continue
				}
				info.Associations = append(info.Associations, RouteTableAssociation{
					SubnetID: aws.ToString(a.SubnetId),
				})
			}
			rts = append(rts, info)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return rts, nil
}

func natGatewayInfo(ng types.NatGateway) NATGatewayInfo {
	info := NATGatewayInfo{
		GatewayID: aws.ToString(ng.NatGatewayId),
		State:     string(ng.State),
		SubnetID:  aws.ToString(ng.SubnetId),
	}
	if len(ng.NatGatewayAddresses) > 0 {
		addr := ng.NatGatewayAddresses[0]
		info.AllocationID = aws.ToString(addr.AllocationId)
		info.ElasticIP = aws.ToString(addr.PublicIp)
	}
	return info
}

func (c *Client) describeNATGateways(ctx context.Context, input *awsec2.DescribeNatGatewaysInput) ([]NATGatewayInfo, error) {
	var nats []NATGatewayInfo
	for {
		out, err := c.api.DescribeNatGateways(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, ng := range out.NatGateways {
			nats = append(nats, natGatewayInfo(ng))
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return nats, nil
}

// ListNATGateways lists the VPC's NAT gateways, optionally only those in the
// given states.
func (c *Client) ListNATGateways(ctx context.Context, vpcID string, states ...string) ([]NATGatewayInfo, error) {
	filters := []types.Filter{
		{Name: aws.String("vpc-id"), Values: []string{vpcID}},
	}
	if len(states) > 0 {
		filters = append(filters, types.Filter{Name: aws.String("state"), Values: states})
	}
	nats, err := c.describeNATGateways(ctx, &awsec2.DescribeNatGatewaysInput{Filter: filters})
	if err != nil {
		return nil, fmt.Errorf("DescribeNatGateways: %w", err)
	}
	return nats, nil
}

// GetNATGateway looks a gateway up by id within a VPC. More than one entry can
// come back; callers decide how to treat that.
func (c *Client) GetNATGateway(ctx context.Context, vpcID, gatewayID string) ([]NATGatewayInfo, error) {
	nats, err := c.describeNATGateways(ctx, &awsec2.DescribeNatGatewaysInput{
		NatGatewayIds: []string{gatewayID},
		Filter: []types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		},
	})
	if err != nil {
		return nil, apierr.Wrap("DescribeNatGateways", gatewayID, err)
	}
	return nats, nil
}

// AllocateAddress allocates a VPC elastic IP and returns its allocation id.
func (c *Client) AllocateAddress(ctx context.Context, name string) (string, error) {
	out, err := c.api.AllocateAddress(ctx, &awsec2.AllocateAddressInput{
		Domain:            types.DomainTypeVpc,
		TagSpecifications: nameTags(types.ResourceTypeElasticIp, name),
	})
	if err != nil {
		return "", apierr.Wrap("AllocateAddress", name, err)
	}
	return aws.ToString(out.AllocationId), nil
}

func (c *Client) CreateNATGateway(ctx context.Context, in CreateNATGatewayInput) (NATGatewayInfo, error) {
	input := &awsec2.CreateNatGatewayInput{
		SubnetId:          aws.String(in.SubnetID),
		TagSpecifications: nameTags(types.ResourceTypeNatgateway, in.Name),
	}
	if in.AllocationID != "" {
		input.AllocationId = aws.String(in.AllocationID)
	}
	if in.ClientToken != "" {
		input.ClientToken = aws.String(in.ClientToken)
	}
	out, err := c.api.CreateNatGateway(ctx, input)
	if err != nil {
		return NATGatewayInfo{}, apierr.Wrap("CreateNatGateway", in.SubnetID, err)
	}
	if out.NatGateway == nil {
		return NATGatewayInfo{}, apierr.Wrap("CreateNatGateway", in.SubnetID, fmt.Errorf("empty response"))
	}
	return natGatewayInfo(*out.NatGateway), nil
}

func (c *Client) DeleteRoute(ctx context.Context, routeTableID, destinationCIDR string) error {
	_, err := c.api.DeleteRoute(ctx, &awsec2.DeleteRouteInput{
		RouteTableId:         aws.String(routeTableID),
		DestinationCidrBlock: aws.String(destinationCIDR),
	})
	if err != nil {
		return apierr.Wrap("DeleteRoute", routeTableID+" "+destinationCIDR, err)
	}
	return nil
}

// CreateNATRoute adds a route for destinationCIDR through a NAT gateway.
func (c *Client) CreateNATRoute(ctx context.Context, routeTableID, destinationCIDR, natGatewayID string) error {
	out, err := c.api.CreateRoute(ctx, &awsec2.CreateRouteInput{
		RouteTableId:         aws.String(routeTableID),
		DestinationCidrBlock: aws.String(destinationCIDR),
		NatGatewayId:         aws.String(natGatewayID),
	})
	if err != nil {
		return apierr.Wrap("CreateRoute", routeTableID+" "+destinationCIDR, err)
	}
	if out.Return != nil && !aws.ToBool(out.Return) {
		return apierr.Wrap("CreateRoute", routeTableID+" "+destinationCIDR, fmt.Errorf("request not accepted"))
	}
	return nil
}
