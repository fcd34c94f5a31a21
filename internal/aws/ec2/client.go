package ec2

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"tasnim.dev/nat-convert/internal/aws/apierr"
)

// ErrSourceDestCheckMissing is returned when the attribute response carries
// no source/destination check value.
var ErrSourceDestCheckMissing = errors.New("sourceDestCheck attribute missing")

type EC2API interface {
	DescribeInstances(ctx context.Context, params *awsec2.DescribeInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error)
	DescribeInstanceAttribute(ctx context.Context, params *awsec2.DescribeInstanceAttributeInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstanceAttributeOutput, error)
	StopInstances(ctx context.Context, params *awsec2.StopInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.StopInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *awsec2.TerminateInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.TerminateInstancesOutput, error)
}

type Client struct {
	api EC2API
}

func NewClient(api EC2API) *Client {
	return &Client{api: api}
}

// DescribeInstances returns the given instances. An empty ids slice returns
// nothing rather than every instance in the region.
func (c *Client) DescribeInstances(ctx context.Context, ids []string) ([]EC2Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var instances []EC2Instance
	var nextToken *string

	for {
		out, err := c.api.DescribeInstances(ctx, &awsec2.DescribeInstancesInput{
			InstanceIds: ids,
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances: %w", err)
		}

		for _, reservation := range out.Reservations {
			for _, inst := range reservation.Instances {
				name := ""
				for _, tag := range inst.Tags {
					if aws.ToString(tag.Key) == "Name" {
						name = aws.ToString(tag.Value)
						break
					}
				}

				var state types.InstanceStateName
				if inst.State != nil {
					state = inst.State.Name
				}
				instances = append(instances, EC2Instance{
					Name:       name,
					InstanceID: aws.ToString(inst.InstanceId),
					Type:       string(inst.InstanceType),
					State:      string(state),
					PrivateIP:  aws.ToString(inst.PrivateIpAddress),
					PublicIP:   aws.ToString(inst.PublicIpAddress),
				})
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return instances, nil
}

// SourceDestCheck reads the instance's sourceDestCheck attribute.
func (c *Client) SourceDestCheck(ctx context.Context, instanceID string) (bool, error) {
	out, err := c.api.DescribeInstanceAttribute(ctx, &awsec2.DescribeInstanceAttributeInput{
		InstanceId: aws.String(instanceID),
		Attribute:  types.InstanceAttributeNameSourceDestCheck,
	})
	if err != nil {
		return false, apierr.Wrap("DescribeInstanceAttribute", instanceID, err)
	}
	if out.SourceDestCheck == nil || out.SourceDestCheck.Value == nil {
		return false, apierr.Wrap("DescribeInstanceAttribute", instanceID, ErrSourceDestCheckMissing)
	}
	return aws.ToBool(out.SourceDestCheck.Value), nil
}

func (c *Client) StopInstances(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.api.StopInstances(ctx, &awsec2.StopInstancesInput{InstanceIds: ids})
	return apierr.Wrap("StopInstances", strings.Join(ids, ","), err)
}

func (c *Client) TerminateInstances(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.api.TerminateInstances(ctx, &awsec2.TerminateInstancesInput{InstanceIds: ids})
	return apierr.Wrap("TerminateInstances", strings.Join(ids, ","), err)
}
