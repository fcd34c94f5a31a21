package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tasnim.dev/nat-convert/internal/natconv"
	"tasnim.dev/nat-convert/internal/theme"
	"tasnim.dev/nat-convert/internal/utils"
)

// Run is what a finished or aborted conversion leaves behind.
type Run struct {
	AccountID    string
	Region       string
	State        natconv.State
	Network      natconv.Network
	SubnetID     string
	AllocationID string
	PublicIP     string
	GatewayID    string
	Started      time.Time
	Finished     time.Time
	Routes       []natconv.RouteResult
	Instances    []natconv.InstanceResult
	Err          error
}

func countOK(routes []natconv.RouteResult) int {
	n := 0
	for _, r := range routes {
		if r.OK() {
			n++
		}
	}
	return n
}

// Summary prints the identifiers a run created and how far it got, so that
// anything left behind can be cleaned up by hand.
func Summary(w io.Writer, run Run) {
	db := utils.NewDetailBuilder(16, theme.MutedStyle)
	db.Section("Summary")
	db.Row("Account", run.AccountID)
	db.Row("Region", run.Region)
	db.Row("VPC", run.Network.ID)
	db.Row("State", run.State.String())
	db.Row("Subnet", run.SubnetID)
	db.Row("Elastic IP", run.AllocationID)
	db.Row("Public IP", run.PublicIP)
	db.Row("NAT gateway", run.GatewayID)
	if len(run.Routes) > 0 {
		db.Row("Routes", fmt.Sprintf("%d/%d converted", countOK(run.Routes), len(run.Routes)))
	}
	if len(run.Instances) > 0 {
		db.Row("NAT instances", fmt.Sprintf("%s %s", run.Instances[0].Action, utils.Plural(len(run.Instances), "instance")))
	}
	if !run.Started.IsZero() {
		db.Row("Elapsed", utils.Elapsed(run.Started, run.Finished))
	}
	if run.Err != nil {
		db.Row("Error", run.Err.Error())
	}
	fmt.Fprintln(w, theme.SummaryBoxStyle.Render(strings.TrimRight(db.String(), "\n")))
}
