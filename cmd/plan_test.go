package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsec2 "tasnim.dev/nat-convert/internal/aws/ec2"
	"tasnim.dev/nat-convert/internal/natconv"
	"tasnim.dev/nat-convert/internal/natconv/natconvtest"
)

// describingGateway adds instance detail lookups to the in-memory gateway.
type describingGateway struct {
	*natconvtest.Gateway
	instances []awsec2.EC2Instance
}

func (d *describingGateway) Instances(ctx context.Context, ids []string) ([]awsec2.EC2Instance, error) {
	return d.instances, nil
}

func newPlanner(g natconv.ResourceGateway, vpc string, out *bytes.Buffer) *planner {
	return &planner{
		gw:       g,
		prompter: &scripted{indexes: []string{"1"}},
		out:      out,
		log:      quietLogger(),
		vpc:      vpc,
	}
}

func assertReadOnly(t *testing.T, g *natconvtest.Gateway) {
	t.Helper()
	for _, op := range []string{"AllocateElasticIP", "CreateNatGateway", "DeleteRoute", "CreateRoute", "StopInstances", "TerminateInstances"} {
		assert.Zero(t, g.Count(op), op)
	}
}

func TestPlan_ShowsInstanceDetail(t *testing.T) {
	g := natconvtest.ScenarioA(false)
	d := &describingGateway{Gateway: g, instances: []awsec2.EC2Instance{
		{InstanceID: "i-legacy1", Name: "nat-az1", Type: "t3.nano", State: "running", PrivateIP: "10.0.0.10", PublicIP: "54.1.2.3"},
	}}
	var out bytes.Buffer

	require.NoError(t, newPlanner(d, "", &out).run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "VPCS")
	assert.Contains(t, text, "i-legacy1")
	assert.Contains(t, text, "nat-az1")
	assert.Contains(t, text, "t3.nano")
	assert.Contains(t, text, "54.1.2.3")
	assert.Contains(t, text, "subnet-priv1")
	assert.Contains(t, text, "subnet-pub1")
	assert.Contains(t, text, "following actions")
	assertReadOnly(t, g)
}

func TestPlan_NothingToConvert(t *testing.T) {
	g := natconvtest.ScenarioA(true)
	var out bytes.Buffer

	require.NoError(t, newPlanner(g, "vpc-1", &out).run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "SKIPPED")
	assert.Contains(t, text, "convert would do nothing")
	assertReadOnly(t, g)
}

func TestPlan_NoPublicSubnet(t *testing.T) {
	g := natconvtest.ScenarioA(false)
	g.RouteTables["vpc-1"] = g.RouteTables["vpc-1"][1:]
	var out bytes.Buffer

	err := newPlanner(g, "vpc-1", &out).run(context.Background())
	assert.ErrorIs(t, err, natconv.ErrNoPublicSubnet)
	assert.Contains(t, out.String(), "No public subnet")
	assertReadOnly(t, g)
}

func TestPlan_ExistingGateway(t *testing.T) {
	g := natconvtest.ScenarioA(false)
	g.Existing["vpc-1"] = []natconv.NatGateway{{ID: "nat-old", State: natconv.GatewayStateAvailable}}
	var out bytes.Buffer

	err := newPlanner(g, "vpc-1", &out).run(context.Background())
	assert.ErrorIs(t, err, natconv.ErrGatewayAlreadyExists)
	assert.Contains(t, out.String(), "nat-old")
}

func TestPlan_CancelledContextStops(t *testing.T) {
	g := natconvtest.ScenarioA(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	err := newPlanner(g, "vpc-1", &out).run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, g.Count("ListRouteTables"))
	assertReadOnly(t, g)
}
