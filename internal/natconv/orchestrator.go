package natconv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rglonek/logger"
)

const (
	DefaultPollInterval         = 5 * time.Second
	DefaultMaxSelectionAttempts = 3
)

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	// WaitTimeout bounds WaitReady. Zero means wait until ctx is done.
	WaitTimeout          time.Duration
	MaxSelectionAttempts int
	// SkipCreateOnDeleteFailure leaves a pair untouched when removing the old
	// route fails instead of still attempting the new one.
	SkipCreateOnDeleteFailure bool
	Logger                    *logger.Logger
	// Sleep blocks for d or until ctx is done. Defaults to a timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnPoll is called after every readiness query.
	OnPoll func(attempt int, gateways []NatGateway)
}

// Orchestrator drives one migration run. It is not safe for concurrent use;
// each identifier it records is written once.
type Orchestrator struct {
	gw       ResourceGateway
	analyzer *Analyzer
	opts     Options
	log      *logger.Logger

	state        State
	network      Network
	plan         Plan
	cutoverSet   []LegacyNatRoute
	allocationID string
	subnetID     string
	gatewayID    string
	publicIP     string
	routeResults []RouteResult
	instResults  []InstanceResult
	abortReason  error
}

func NewOrchestrator(gw ResourceGateway, opts Options) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxSelectionAttempts <= 0 {
		opts.MaxSelectionAttempts = DefaultMaxSelectionAttempts
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewLogger()
	}
	return &Orchestrator{
		gw:       gw,
		analyzer: NewAnalyzer(gw),
		opts:     opts,
		log:      log.WithPrefix("[natconv] "),
		state:    StateSelectingNetwork,
	}
}

func (o *Orchestrator) State() State { return o.state }
func (o *Orchestrator) Network() Network { return o.network }
func (o *Orchestrator) CurrentPlan() Plan { return o.plan }
func (o *Orchestrator) AllocationID() string { return o.allocationID }
func (o *Orchestrator) SubnetID() string { return o.subnetID }
func (o *Orchestrator) GatewayID() string { return o.gatewayID }

// PublicIP is the gateway's public address as reported when it became ready.
func (o *Orchestrator) PublicIP() string { return o.publicIP }
func (o *Orchestrator) RouteResults() []RouteResult { return o.routeResults }
func (o *Orchestrator) InstanceResults() []InstanceResult { return o.instResults }

// AbortReason is the error that moved the run to StateAborted, if any.
func (o *Orchestrator) AbortReason() error { return o.abortReason }

// Analyzer exposes the read-only topology queries bound to the same gateway.
func (o *Orchestrator) Analyzer() *Analyzer { return o.analyzer }

func (o *Orchestrator) expect(op string, states ...State) error {
	for _, s := range states {
		if o.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, o.state)
}

func (o *Orchestrator) transition(to State) {
	o.log.Debug("%s -> %s", o.state, to)
	o.state = to
}

// Abort ends the run. It is a no-op once the run is terminal.
func (o *Orchestrator) Abort(reason error) {
	if o.state.Terminal() {
		return
	}
	if reason != nil {
		o.log.Warn("aborting in %s: %v", o.state, reason)
	}
	o.abortReason = reason
	o.transition(StateAborted)
}

func (o *Orchestrator) fail(err error) error {
	o.Abort(err)
	return err
}

// Chooser returns the operator's 1-based answer for the listed networks. prev
// is the error from the previous attempt, nil on the first.
type Chooser func(networks []Network, prev error) (string, error)

// SelectNetwork lists the account's VPCs and asks choose for one, retrying at
// most MaxSelectionAttempts times on invalid answers.
func (o *Orchestrator) SelectNetwork(ctx context.Context, choose Chooser) (Network, error) {
	if err := o.expect("SelectNetwork", StateSelectingNetwork); err != nil {
		return Network{}, err
	}
	networks, err := o.listNetworks(ctx)
	if err != nil {
		return Network{}, o.fail(err)
	}

	var prev error
	for attempt := 1; attempt <= o.opts.MaxSelectionAttempts; attempt++ {
		answer, err := choose(networks, prev)
		if err != nil {
			return Network{}, o.fail(err)
		}
		idx, convErr := strconv.Atoi(strings.TrimSpace(answer))
		if convErr != nil || idx < 1 || idx > len(networks) {
			prev = &SelectionError{Input: answer, Err: ErrInvalidSelection}
			o.log.Info("attempt %d/%d: %v", attempt, o.opts.MaxSelectionAttempts, prev)
			continue
		}
		return o.selected(networks[idx-1]), nil
	}
	return Network{}, o.fail(prev)
}

// UseNetwork selects a VPC by id without prompting.
func (o *Orchestrator) UseNetwork(ctx context.Context, vpcID string) (Network, error) {
	if err := o.expect("UseNetwork", StateSelectingNetwork); err != nil {
		return Network{}, err
	}
	networks, err := o.listNetworks(ctx)
	if err != nil {
		return Network{}, o.fail(err)
	}
	for _, n := range networks {
		if n.ID == vpcID {
			return o.selected(n), nil
		}
	}
	return Network{}, o.fail(&SelectionError{Input: vpcID, Err: ErrInvalidSelection})
}

func (o *Orchestrator) listNetworks(ctx context.Context) ([]Network, error) {
	networks, err := o.gw.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	if len(networks) == 0 {
		return nil, ErrNoNetworks
	}
	return networks, nil
}

func (o *Orchestrator) selected(n Network) Network {
	o.network = n
	o.log.Info("selected VPC %s", n.ID)
	o.transition(StateValidating)
	return n
}

// Validate refuses to continue when the VPC already has an available NAT
// gateway.
func (o *Orchestrator) Validate(ctx context.Context) error {
	if err := o.expect("Validate", StateValidating); err != nil {
		return err
	}
	existing, err := o.gw.ListNatGateways(ctx, o.network.ID, GatewayStateAvailable)
	if err != nil {
		return o.fail(fmt.Errorf("listing NAT gateways for %s: %w", o.network.ID, err))
	}
	if len(existing) > 0 {
		ids := make([]string, 0, len(existing))
		for _, g := range existing {
			ids = append(ids, g.ID)
		}
		return o.fail(&PreconditionError{VpcID: o.network.ID, GatewayIDs: ids, Err: ErrGatewayAlreadyExists})
	}
	o.transition(StatePlanning)
	return nil
}

// Plan computes the convertible instances and gateway placement candidates.
// errors.Is(err, ErrNoConvertibleInstances) means there is nothing to do.
func (o *Orchestrator) Plan(ctx context.Context) (Plan, error) {
	if err := o.expect("Plan", StatePlanning); err != nil {
		return Plan{}, err
	}
	plan, err := o.analyzer.BuildPlan(ctx, o.network)
	if err != nil {
		return Plan{}, o.fail(&PlanningError{VpcID: o.network.ID, Err: err})
	}
	o.plan = plan
	if len(plan.Convertible) == 0 {
		return plan, o.fail(&PlanningError{VpcID: o.network.ID, Err: ErrNoConvertibleInstances})
	}
	if len(plan.Topology.PublicSubnets) == 0 {
		return plan, o.fail(&PlanningError{VpcID: o.network.ID, Err: ErrNoPublicSubnet})
	}
	o.log.Info("%d convertible route(s), %d skipped, %d public subnet(s)",
		len(plan.Convertible), len(plan.Skipped), len(plan.Topology.PublicSubnets))
	o.transition(StateProvisioningEIP)
	return plan, nil
}

// AllocateElasticIP reserves one address for the gateway. The allocation is
// never released by the orchestrator.
func (o *Orchestrator) AllocateElasticIP(ctx context.Context) (string, error) {
	if err := o.expect("AllocateElasticIP", StateProvisioningEIP); err != nil {
		return "", err
	}
	id, err := o.gw.AllocateElasticIP(ctx, o.network.ID)
	if err != nil {
		return "", o.fail(&ProvisioningError{Op: "AllocateElasticIP", Target: o.network.ID, Err: err})
	}
	o.allocationID = id
	o.log.Info("allocated EIP %s", id)
	o.transition(StateCreatingGateway)
	return id, nil
}

// CreateGateway creates the NAT gateway in subnetID, which must be one of the
// plan's public subnets.
func (o *Orchestrator) CreateGateway(ctx context.Context, subnetID string) (string, error) {
	if err := o.expect("CreateGateway", StateProvisioningEIP, StateCreatingGateway); err != nil {
		return "", err
	}
	if !o.plan.Topology.HasPublicSubnet(subnetID) {
		return "", &SelectionError{Input: subnetID, Err: ErrInvalidSelection}
	}
	o.transition(StateCreatingGateway)
	id, err := o.gw.CreateNatGateway(ctx, o.network.ID, subnetID, o.allocationID)
	if err != nil {
		return "", o.fail(&ProvisioningError{
			Op:           "CreateNatGateway",
			Target:       subnetID,
			AllocationID: o.allocationID,
			Err:          err,
		})
	}
	o.subnetID = subnetID
	o.gatewayID = id
	o.log.Info("created NAT gateway %s in %s", id, subnetID)
	o.transition(StateWaitingReady)
	return id, nil
}

// WaitReady polls the gateway until every matching entry is available. It
// returns after the first query that satisfies that, and aborts if the gateway
// fails, the timeout passes or ctx is cancelled.
func (o *Orchestrator) WaitReady(ctx context.Context) error {
	if err := o.expect("WaitReady", StateWaitingReady); err != nil {
		return err
	}
	if o.opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.WaitTimeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		gateways, err := o.gw.DescribeNatGateway(ctx, o.network.ID, o.gatewayID)
		if err != nil {
			return o.fail(o.waitError(err))
		}
		if o.opts.OnPoll != nil {
			o.opts.OnPoll(attempt, gateways)
		}
		ready, broken := readiness(gateways)
		if broken != "" {
			return o.fail(o.waitError(fmt.Errorf("%w: state %s", ErrGatewayFailed, broken)))
		}
		if ready {
			o.publicIP = gateways[0].PublicIP
			o.log.Info("NAT gateway %s available after %d quer(ies)", o.gatewayID, attempt)
			o.transition(StateCuttingOver)
			return nil
		}
		o.log.Debug("NAT gateway %s not ready (attempt %d)", o.gatewayID, attempt)
		if err := o.opts.Sleep(ctx, o.opts.PollInterval); err != nil {
			return o.fail(o.waitError(err))
		}
	}
}

func (o *Orchestrator) waitError(err error) error {
	return &ProvisioningError{
		Op:           "WaitReady",
		Target:       o.gatewayID,
		GatewayID:    o.gatewayID,
		AllocationID: o.allocationID,
		Err:          err,
	}
}

// readiness requires at least one result and all results available. broken
// names a state the gateway cannot recover from.
func readiness(gateways []NatGateway) (ready bool, broken string) {
	ready = len(gateways) > 0
	for _, g := range gateways {
		switch strings.ToLower(g.State) {
		case GatewayStateAvailable:
		case GatewayStateFailed, GatewayStateDeleted, GatewayStateDeleting:
			return false, g.State
		default:
			ready = false
		}
	}
	return ready, ""
}

// CutOver repoints the planned NAT routes at the new gateway, deleting the
// old route before creating the new one for the same destination. Only pairs
// that were in the plan and are still convertible are touched. Each pair is
// attempted even when an earlier one fails; nothing is rolled back.
func (o *Orchestrator) CutOver(ctx context.Context) ([]RouteResult, error) {
	if err := o.expect("CutOver", StateCuttingOver); err != nil {
		return nil, err
	}
	live, err := o.analyzer.ConvertibleInstances(ctx, o.network.ID)
	if err != nil {
		// No route has been touched yet; the caller may retry or abort.
		return nil, &CutoverError{GatewayID: o.gatewayID, Err: err}
	}
	if dropped := missingFrom(o.plan.Convertible, live); len(dropped) > 0 {
		o.log.Warn("%d planned route(s) no longer convertible, skipping: %v", len(dropped), dropped)
	}
	if unplanned := missingFrom(live, o.plan.Convertible); len(unplanned) > 0 {
		o.log.Warn("%d route(s) appeared after planning, leaving untouched: %v", len(unplanned), unplanned)
	}
	routes := intersect(o.plan.Convertible, live)
	o.cutoverSet = routes

	results := make([]RouteResult, 0, len(routes))
	var failed []RouteResult
	for _, r := range routes {
		res := o.cutOne(ctx, r)
		results = append(results, res)
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	o.routeResults = results
	o.transition(StateDecommissioning)
	if len(failed) > 0 {
		return results, &CutoverError{GatewayID: o.gatewayID, Failed: failed}
	}
	return results, nil
}

func (o *Orchestrator) cutOne(ctx context.Context, r LegacyNatRoute) RouteResult {
	res := RouteResult{Route: r}
	if err := o.gw.DeleteRoute(ctx, r.RouteTableID, r.DestinationCIDR); err != nil {
		res.DeleteErr = err
		o.log.Error("delete %s %s: %v", r.RouteTableID, r.DestinationCIDR, err)
		if o.opts.SkipCreateOnDeleteFailure {
			return res
		}
	} else {
		res.Deleted = true
	}
	if err := o.gw.CreateRoute(ctx, r.RouteTableID, r.DestinationCIDR, o.gatewayID); err != nil {
		res.CreateErr = err
		o.log.Error("create %s %s -> %s: %v", r.RouteTableID, r.DestinationCIDR, o.gatewayID, err)
		return res
	}
	res.Created = true
	o.log.Info("routed %s %s -> %s", r.RouteTableID, r.DestinationCIDR, o.gatewayID)
	return res
}

// intersect keeps the routes of planned that are also in current, in planned
// order.
func intersect(planned, current []LegacyNatRoute) []LegacyNatRoute {
	have := make(map[LegacyNatRoute]bool, len(current))
	for _, r := range current {
		have[r] = true
	}
	var out []LegacyNatRoute
	for _, r := range planned {
		if have[r] {
			out = append(out, r)
		}
	}
	return out
}

// missingFrom returns the routes of want that are not in have.
func missingFrom(want, have []LegacyNatRoute) []LegacyNatRoute {
	present := make(map[LegacyNatRoute]bool, len(have))
	for _, r := range have {
		present[r] = true
	}
	var missing []LegacyNatRoute
	for _, r := range want {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// DecommissionTargets are the planned instances whose routes were taken into
// cutover. They are not re-checked for eligibility, and an instance that was
// not in the plan is never a target.
func (o *Orchestrator) DecommissionTargets() []string {
	return uniqueInstanceIDs(o.cutoverSet)
}

// Decommission stops or terminates the replaced instances one by one and
// finishes the run. Failures are collected per instance.
func (o *Orchestrator) Decommission(ctx context.Context, action Decommission) ([]InstanceResult, error) {
	if err := o.expect("Decommission", StateDecommissioning); err != nil {
		return nil, err
	}
	ids := o.DecommissionTargets()
	results := make([]InstanceResult, 0, len(ids))
	var failed []InstanceResult
	for _, id := range ids {
		res := InstanceResult{InstanceID: id, Action: action}
		switch action {
		case DecommissionStop:
			res.Err = o.gw.StopInstances(ctx, []string{id})
		case DecommissionTerminate:
			res.Err = o.gw.TerminateInstances(ctx, []string{id})
		}
		if res.Err != nil {
			o.log.Error("%s %s: %v", action, id, res.Err)
			failed = append(failed, res)
		} else if action != DecommissionNone {
			o.log.Info("%s %s", action, id)
		}
		results = append(results, res)
	}
	o.instResults = results
	o.transition(StateDone)
	if len(failed) > 0 {
		return results, &DecommissionError{Action: action, Failed: failed}
	}
	return results, nil
}

// Finish completes the run without touching the legacy instances.
func (o *Orchestrator) Finish() error {
	if err := o.expect("Finish", StateDecommissioning); err != nil {
		return err
	}
	o.transition(StateDone)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsNoop reports whether err only means there was nothing to migrate.
func IsNoop(err error) bool {
	return errors.Is(err, ErrNoConvertibleInstances)
}
