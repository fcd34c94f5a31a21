// Package report renders discovery and migration results as tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"tasnim.dev/nat-convert/internal/aws/apierr"
	"tasnim.dev/nat-convert/internal/natconv"
	"tasnim.dev/nat-convert/internal/utils"
)

// Instance is the display detail of a NAT instance.
type Instance struct {
	ID        string
	Name      string
	Type      string
	State     string
	PrivateIP string
	PublicIP  string
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

func Networks(w io.Writer, networks []natconv.Network) {
	t := newTable(w, "VPCS", table.Row{"#", "VPC", "CIDR", "Default", "Name"})
	for i, n := range networks {
		def := ""
		if n.IsDefault {
			def = "yes"
		}
		t.AppendRow(table.Row{i + 1, n.ID, n.CIDR, def, utils.DashIfEmpty(n.Name)})
	}
	t.Render()
}

func routeRows(t table.Writer, routes []natconv.LegacyNatRoute, instances map[string]Instance) {
	for _, r := range routes {
		inst := instances[r.InstanceID]
		t.AppendRow(table.Row{
			r.RouteTableID,
			r.DestinationCIDR,
			r.InstanceID,
			utils.DashIfEmpty(inst.Name),
			utils.DashIfEmpty(inst.Type),
			utils.DashIfEmpty(inst.State),
			utils.DashIfEmpty(inst.PrivateIP),
			utils.DashIfEmpty(inst.PublicIP),
		})
	}
}

// Plan prints what a conversion of the planned VPC would touch. instances may
// be nil when no detail was looked up.
func Plan(w io.Writer, plan natconv.Plan, instances map[string]Instance) {
	header := table.Row{"Route Table", "Destination", "Instance", "Name", "Type", "State", "Private IP", "Public IP"}

	t := newTable(w, "CONVERTIBLE NAT ROUTES", header)
	routeRows(t, plan.Convertible, instances)
	t.Render()

	if len(plan.Skipped) > 0 {
		t = newTable(w, "SKIPPED (source/destination check enabled)", header)
		routeRows(t, plan.Skipped, instances)
		t.Render()
	}

	t = newTable(w, "PRIVATE SUBNETS", table.Row{"Subnet"})
	for _, id := range plan.Topology.PrivateSubnetIDs {
		t.AppendRow(table.Row{id})
	}
	t.Render()

	t = newTable(w, "PUBLIC SUBNETS (NAT gateway candidates)", table.Row{"Subnet", "Route Table"})
	for _, s := range plan.Topology.PublicSubnets {
		t.AppendRow(table.Row{s.SubnetID, s.RouteTableID})
	}
	t.Render()
}

// Actions lists the steps a confirmed run will perform.
func Actions(w io.Writer, plan natconv.Plan) {
	var subnets []string
	for _, s := range plan.Topology.PublicSubnets {
		subnets = append(subnets, s.SubnetID)
	}
	fmt.Fprintln(w, "If you continue, the following actions will be performed:")
	fmt.Fprintf(w, " 1. A NAT gateway is created in one of: %s\n", strings.Join(subnets, ", "))
	fmt.Fprintf(w, " 2. %s in %s are pointed at the NAT gateway\n",
		utils.Plural(len(plan.Convertible), "route"), utils.JoinOrDash(plan.Topology.PrivateRouteTableIDs))
	fmt.Fprintf(w, " 3. You choose whether to stop, terminate or keep: %s\n", utils.JoinOrDash(plan.InstanceIDs()))
}

// outcome prefers the service error code over the full SDK message, which
// carries request ids and does not fit a table cell.
func outcome(done bool, err error) string {
	switch {
	case err != nil:
		if code := apierr.Code(err); code != "" {
			return "failed: " + code
		}
		return "failed: " + err.Error()
	case done:
		return "ok"
	default:
		return "skipped"
	}
}

func Routes(w io.Writer, gatewayID string, results []natconv.RouteResult) {
	t := newTable(w, "ROUTES -> "+gatewayID, table.Row{"Route Table", "Destination", "Old Target", "Delete", "Create"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.Route.RouteTableID,
			r.Route.DestinationCIDR,
			r.Route.InstanceID,
			outcome(r.Deleted, r.DeleteErr),
			outcome(r.Created, r.CreateErr),
		})
	}
	t.Render()
}

func Instances(w io.Writer, results []natconv.InstanceResult) {
	t := newTable(w, "NAT INSTANCES", table.Row{"Instance", "Action", "Result"})
	for _, r := range results {
		t.AppendRow(table.Row{r.InstanceID, r.Action.String(), outcome(r.Err == nil, r.Err)})
	}
	t.Render()
}
