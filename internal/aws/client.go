package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	awsec2 "tasnim.dev/nat-convert/internal/aws/ec2"
	awsvpc "tasnim.dev/nat-convert/internal/aws/vpc"
)

type ServiceClient struct {
	EC2 *awsec2.Client
	VPC *awsvpc.Client

	Region    string
	AccountID string
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, err
	}

	ec2Client := ec2.NewFromConfig(cfg)

	return &ServiceClient{
		EC2:       awsec2.NewClient(ec2Client),
		VPC:       awsvpc.NewClient(ec2Client),
		Region:    cfg.Region,
		AccountID: GetAccountID(ctx, cfg),
	}, nil
}
