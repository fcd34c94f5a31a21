package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rglonek/logger"
	"github.com/spf13/cobra"

	awsec2 "tasnim.dev/nat-convert/internal/aws/ec2"
	"tasnim.dev/nat-convert/internal/natconv"
	"tasnim.dev/nat-convert/internal/prompt"
	"tasnim.dev/nat-convert/internal/report"
	"tasnim.dev/nat-convert/internal/theme"
)

// instanceDescriber looks up display detail for NAT instances.
type instanceDescriber interface {
	Instances(ctx context.Context, ids []string) ([]awsec2.EC2Instance, error)
}

func NewPlanCmd() *cobra.Command {
	var flags sessionFlags
	var vpc string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what convert would change in a VPC without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			s, err := newSession(ctx, &flags)
			if err != nil {
				return err
			}
			s.banner(cmd.OutOrStdout())
			p := &planner{
				gw:       s.gateway,
				prompter: prompt.NewSurvey(),
				out:      cmd.OutOrStdout(),
				log:      s.log,
				maxTries: s.cfg.MaxSelections(),
				vpc:      vpc,
			}
			return p.run(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&vpc, "vpc", "", "VPC id to inspect instead of choosing from a list")

	return cmd
}

type planner struct {
	gw       natconv.ResourceGateway
	prompter prompt.Prompter
	out      io.Writer
	log      *logger.Logger
	maxTries int
	vpc      string
}

func (p *planner) run(ctx context.Context) error {
	o := natconv.NewOrchestrator(p.gw, natconv.Options{
		Logger:               p.log,
		MaxSelectionAttempts: p.maxTries,
	})
	c := &converter{out: p.out, prompter: p.prompter, flags: convertFlags{vpc: p.vpc}}
	if err := c.selectNetwork(ctx, o); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Selected VPC: %s\n", o.Network().Label())

	if err := o.Validate(ctx); err != nil {
		var pe *natconv.PreconditionError
		if errors.As(err, &pe) {
			fmt.Fprintln(p.out, theme.ErrorStyle.Render(
				fmt.Sprintf("This VPC already has a NAT gateway (%v); convert would abort.", pe.GatewayIDs)))
		}
		return err
	}

	plan, err := o.Plan(ctx)
	if err != nil && !natconv.IsNoop(err) && !errors.Is(err, natconv.ErrNoPublicSubnet) {
		return err
	}
	report.Plan(p.out, plan, p.instances(ctx, plan))
	switch {
	case natconv.IsNoop(err):
		fmt.Fprintln(p.out, theme.WarningStyle.Render("No convertible NAT instances; convert would do nothing."))
	case err != nil:
		fmt.Fprintln(p.out, theme.ErrorStyle.Render("No public subnet to place a NAT gateway in; convert would abort."))
		return err
	default:
		report.Actions(p.out, plan)
	}
	return nil
}

// instances returns display detail for every NAT instance in the plan, or nil
// when the gateway cannot describe instances.
func (p *planner) instances(ctx context.Context, plan natconv.Plan) map[string]report.Instance {
	d, ok := p.gw.(instanceDescriber)
	if !ok {
		return nil
	}
	var ids []string
	seen := map[string]bool{}
	for _, r := range append(append([]natconv.LegacyNatRoute{}, plan.Convertible...), plan.Skipped...) {
		if !seen[r.InstanceID] {
			seen[r.InstanceID] = true
			ids = append(ids, r.InstanceID)
		}
	}
	found, err := d.Instances(ctx, ids)
	if err != nil {
		p.log.Warn("describing NAT instances: %v", err)
		return nil
	}
	out := make(map[string]report.Instance, len(found))
	for _, i := range found {
		out[i.InstanceID] = report.Instance{
			ID:        i.InstanceID,
			Name:      i.Name,
			Type:      i.Type,
			State:     i.State,
			PrivateIP: i.PrivateIP,
			PublicIP:  i.PublicIP,
		}
	}
	return out
}
