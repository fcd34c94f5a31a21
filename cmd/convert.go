package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rglonek/logger"
	"github.com/spf13/cobra"

	"tasnim.dev/nat-convert/internal/natconv"
	"tasnim.dev/nat-convert/internal/prompt"
	"tasnim.dev/nat-convert/internal/report"
	"tasnim.dev/nat-convert/internal/theme"
	"tasnim.dev/nat-convert/internal/utils"
)

const convertSteps = 8

// errDeclined ends a run the operator chose not to continue.
var errDeclined = errors.New("declined by operator")

type convertFlags struct {
	sessionFlags
	vpc          string
	subnet       string
	eip          bool
	decommission string
	yes          bool
}

func NewConvertCmd() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Replace a VPC's NAT instances with a NAT gateway",
		Long: `convert finds the routes in a VPC that send traffic through NAT instances,
creates a NAT gateway in a public subnet, repoints those routes at it and
then optionally stops or terminates the old instances.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			decommission, err := natconv.ParseDecommission(flags.decommission)
			if err != nil {
				return err
			}
			if flags.yes && flags.vpc == "" {
				return errors.New("--yes requires --vpc")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			s, err := newSession(ctx, &flags.sessionFlags)
			if err != nil {
				return err
			}
			s.banner(cmd.OutOrStdout())

			var p prompt.Prompter = prompt.NewSurvey()
			if flags.yes {
				p = &prompt.Fixed{Accept: true, Subnet: flags.subnet, Decommission: decommission}
			}

			c := &converter{
				gw:       s.gateway,
				prompter: p,
				out:      cmd.OutOrStdout(),
				log:      s.log,
				opts: natconv.Options{
					PollInterval:              s.cfg.PollInterval(),
					WaitTimeout:               s.cfg.WaitTimeout(),
					MaxSelectionAttempts:      s.cfg.MaxSelections(),
					SkipCreateOnDeleteFailure: s.cfg.SkipCreateOnDeleteFailure,
				},
				accountID: s.client.AccountID,
				region:    s.client.Region,
				flags:     flags,
				spinner:   true,
			}
			return c.run(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.vpc, "vpc", "", "VPC id to convert instead of choosing from a list")
	cmd.Flags().StringVar(&flags.subnet, "subnet", "", "public subnet id for the NAT gateway")
	cmd.Flags().BoolVar(&flags.eip, "eip", true, "allocate an elastic IP for the NAT gateway (with --yes)")
	cmd.Flags().StringVar(&flags.decommission, "decommission", "none", "what to do with the NAT instances afterwards with --yes: stop, terminate or none")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "answer every prompt from flags")

	return cmd
}

// converter runs one conversion against a gateway, asking prompter for every
// decision and writing progress to out.
type converter struct {
	gw        natconv.ResourceGateway
	prompter  prompt.Prompter
	out       io.Writer
	log       *logger.Logger
	opts      natconv.Options
	accountID string
	region    string
	flags     convertFlags
	spinner   bool
	now       func() time.Time

	sp *spinner.Spinner
}

func (c *converter) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *converter) step(n int, label string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, theme.Step(n, convertSteps, label))
}

func (c *converter) run(ctx context.Context) error {
	opts := c.opts
	opts.Logger = c.log
	opts.OnPoll = c.onPoll
	o := natconv.NewOrchestrator(c.gw, opts)

	started := c.clock()
	err := c.steps(ctx, o)

	switch {
	case errors.Is(err, errDeclined):
		fmt.Fprintln(c.out, "Goodbye!")
		return nil
	case natconv.IsNoop(err):
		fmt.Fprintf(c.out, "%s\n", theme.WarningStyle.Render(
			fmt.Sprintf("No convertible NAT instances in %s; nothing to do.", o.Network().ID)))
		return nil
	}

	if o.AllocationID() != "" || o.GatewayID() != "" || o.State() == natconv.StateDone {
		fmt.Fprintln(c.out)
		report.Summary(c.out, report.Run{
			AccountID:    c.accountID,
			Region:       c.region,
			State:        o.State(),
			Network:      o.Network(),
			SubnetID:     o.SubnetID(),
			AllocationID: o.AllocationID(),
			PublicIP:     o.PublicIP(),
			GatewayID:    o.GatewayID(),
			Started:      started,
			Finished:     c.clock(),
			Routes:       o.RouteResults(),
			Instances:    o.InstanceResults(),
			Err:          err,
		})
	}
	if err == nil {
		fmt.Fprintln(c.out, theme.SuccessStyle.Render("Conversion complete!"))
	}
	return err
}

// ask aborts the run when a prompt fails.
func (c *converter) ask(o *natconv.Orchestrator, err error) error {
	if err != nil {
		o.Abort(err)
	}
	return err
}

func (c *converter) steps(ctx context.Context, o *natconv.Orchestrator) error {
	c.step(1, "Selecting VPC")
	if err := c.selectNetwork(ctx, o); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Selected VPC: %s\n", o.Network().Label())

	c.step(2, "Checking for an existing NAT gateway")
	if err := o.Validate(ctx); err != nil {
		if errors.Is(err, natconv.ErrGatewayAlreadyExists) {
			fmt.Fprintln(c.out, theme.ErrorStyle.Render("This VPC already has a NAT gateway! Aborting."))
		}
		return err
	}

	c.step(3, "Planning")
	plan, err := o.Plan(ctx)
	if err != nil {
		return err
	}
	report.Plan(c.out, plan, nil)
	fmt.Fprintln(c.out, "This VPC is validated and a NAT gateway can replace its NAT instances.")
	report.Actions(c.out, plan)
	ok, err := c.prompter.Confirm("Do you wish to continue?", false)
	if err := c.ask(o, err); err != nil {
		return err
	}
	if !ok {
		o.Abort(errDeclined)
		return errDeclined
	}

	c.step(4, "Elastic IP")
	useEIP := c.flags.eip
	if !c.flags.yes {
		useEIP, err = c.prompter.Confirm("Associate an elastic IP with the new NAT gateway?", true)
		if err := c.ask(o, err); err != nil {
			return err
		}
	}
	if useEIP {
		id, err := o.AllocateElasticIP(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "New elastic IP allocation: %s\n", id)
	} else {
		fmt.Fprintln(c.out, theme.MutedStyle.Render("Skipping elastic IP allocation."))
	}

	c.step(5, "Creating NAT gateway")
	if err := c.createGateway(ctx, o, plan); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "New NAT gateway: %s in %s\n", o.GatewayID(), o.SubnetID())

	c.step(6, "Waiting for the NAT gateway to become available")
	if err := c.waitReady(ctx, o); err != nil {
		return err
	}

	c.step(7, "Cutting routes over")
	results, cutErr := o.CutOver(ctx)
	if cutErr != nil && o.State() == natconv.StateCuttingOver {
		// Route lookup failed before anything changed.
		o.Abort(cutErr)
		return cutErr
	}
	report.Routes(c.out, o.GatewayID(), results)
	if cutErr != nil {
		fmt.Fprintln(c.out, theme.WarningStyle.Render("Some routes were not converted; see above."))
	}

	c.step(8, "Legacy NAT instances")
	return errors.Join(cutErr, c.decommission(ctx, o, cutErr != nil))
}

func (c *converter) selectNetwork(ctx context.Context, o *natconv.Orchestrator) error {
	if c.flags.vpc != "" {
		_, err := o.UseNetwork(ctx, c.flags.vpc)
		return err
	}
	_, err := o.SelectNetwork(ctx, func(networks []natconv.Network, prev error) (string, error) {
		if prev != nil {
			fmt.Fprintln(c.out, theme.WarningStyle.Render("That's not a valid selection!"))
		} else {
			report.Networks(c.out, networks)
		}
		labels := make([]string, len(networks))
		for i, n := range networks {
			labels[i] = n.Label()
		}
		return c.prompter.SelectIndex("Select the VPC to analyze:", labels)
	})
	return err
}

func (c *converter) createGateway(ctx context.Context, o *natconv.Orchestrator, plan natconv.Plan) error {
	subnets := make([]string, 0, len(plan.Topology.PublicSubnets))
	for _, s := range plan.Topology.PublicSubnets {
		subnets = append(subnets, s.SubnetID)
	}
	subnet := c.flags.subnet
	if subnet == "" {
		var err error
		subnet, err = c.prompter.SelectSubnet("Target subnet for the new NAT gateway:", subnets)
		if err := c.ask(o, err); err != nil {
			return err
		}
	}
	_, err := o.CreateGateway(ctx, subnet)
	// An unknown subnet leaves the state alone; nothing else will be asked.
	return c.ask(o, err)
}

func (c *converter) waitReady(ctx context.Context, o *natconv.Orchestrator) error {
	start := c.clock()
	if c.spinner {
		c.sp = spinner.New(spinner.CharSets[9], 200*time.Millisecond, spinner.WithWriter(c.out))
		c.sp.Suffix = fmt.Sprintf(" Waiting on NAT gateway %s ...", o.GatewayID())
		c.sp.Start()
	}
	err := o.WaitReady(ctx)
	if c.sp != nil {
		c.sp.Stop()
		c.sp = nil
	}
	if err != nil {
		fmt.Fprintln(c.out, theme.ErrorStyle.Render("NAT gateway did not become available: "+err.Error()))
		return err
	}
	fmt.Fprintf(c.out, "NAT gateway %s is %s (waited %s)\n",
		o.GatewayID(), theme.RenderStatus(natconv.GatewayStateAvailable), utils.Elapsed(start, c.clock()))
	return nil
}

func (c *converter) onPoll(attempt int, gateways []natconv.NatGateway) {
	state := "not found"
	if len(gateways) > 0 {
		state = gateways[0].State
	}
	if c.sp == nil {
		c.log.Info("check %d: NAT gateway %s", attempt, state)
		return
	}
	c.sp.Lock()
	c.sp.Suffix = fmt.Sprintf(" Waiting on NAT gateway (%s, check %d) ...", state, attempt)
	c.sp.Unlock()
}

// decommission asks what to do with the replaced instances. With --yes and a
// partial cutover the instances are left running.
func (c *converter) decommission(ctx context.Context, o *natconv.Orchestrator, partial bool) error {
	ids := o.DecommissionTargets()
	if len(ids) == 0 {
		fmt.Fprintln(c.out, "No NAT instances were taken over.")
		return o.Finish()
	}

	action, err := c.prompter.SelectDecommission("What would you like to do with the legacy NAT instances?", ids)
	if err := c.ask(o, err); err != nil {
		return err
	}
	if partial && c.flags.yes && action != natconv.DecommissionNone {
		fmt.Fprintln(c.out, theme.WarningStyle.Render("Not decommissioning after a partial cutover."))
		action = natconv.DecommissionNone
	}

	if action == natconv.DecommissionNone {
		fmt.Fprintf(c.out, "Doing nothing to legacy NAT instances (%s)\n", utils.JoinOrDash(ids))
		return o.Finish()
	}
	results, err := o.Decommission(ctx, action)
	report.Instances(c.out, results)
	return err
}
