package natconv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoNetworks             = errors.New("no VPCs exist on this account")
	ErrGatewayAlreadyExists   = errors.New("NAT gateway already exists for VPC")
	ErrNoConvertibleInstances = errors.New("no convertible NAT instances")
	ErrNoPublicSubnet         = errors.New("no public subnet to place the NAT gateway in")
	ErrInvalidSelection       = errors.New("not a valid selection")
	ErrAttributeMissing       = errors.New("source/destination check attribute missing")
	ErrGatewayFailed          = errors.New("NAT gateway did not become available")
	ErrInvalidState           = errors.New("operation not valid in current state")
)

// SelectionError reports operator input that does not name a known resource.
type SelectionError struct {
	Input string
	Err   error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection %q: %v", e.Input, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// PreconditionError stops a run before anything is changed.
type PreconditionError struct {
	VpcID      string
	GatewayIDs []string
	Err        error
}

func (e *PreconditionError) Error() string {
	if len(e.GatewayIDs) > 0 {
		return fmt.Sprintf("%v %s (%s)", e.Err, e.VpcID, strings.Join(e.GatewayIDs, ", "))
	}
	return fmt.Sprintf("%s: %v", e.VpcID, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

type PlanningError struct {
	VpcID string
	Err   error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning %s: %v", e.VpcID, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// ProvisioningError covers EIP allocation, gateway creation and readiness.
// Resources already created are listed so they can be cleaned up by hand.
type ProvisioningError struct {
	Op           string
	Target       string
	AllocationID string
	GatewayID    string
	Err          error
}

func (e *ProvisioningError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Op)
	if e.Target != "" {
		fmt.Fprintf(&b, " %s", e.Target)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	var left []string
	if e.GatewayID != "" {
		left = append(left, "gateway "+e.GatewayID)
	}
	if e.AllocationID != "" {
		left = append(left, "EIP allocation "+e.AllocationID)
	}
	if len(left) > 0 {
		fmt.Fprintf(&b, " (left in place: %s)", strings.Join(left, ", "))
	}
	return b.String()
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// CutoverError aggregates per-route failures. Routes that succeeded are not
// rolled back.
type CutoverError struct {
	GatewayID string
	Failed    []RouteResult
	Err       error
}

func (e *CutoverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cutover to %s: %v", e.GatewayID, e.Err)
	}
	parts := make([]string, 0, len(e.Failed))
	for _, r := range e.Failed {
		parts = append(parts, describeRouteFailure(r))
	}
	return fmt.Sprintf("cutover to %s: %d route(s) failed: %s", e.GatewayID, len(e.Failed), strings.Join(parts, "; "))
}

func (e *CutoverError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, r := range e.Failed {
		if r.DeleteErr != nil {
			errs = append(errs, r.DeleteErr)
		}
		if r.CreateErr != nil {
			errs = append(errs, r.CreateErr)
		}
	}
	return errs
}

func describeRouteFailure(r RouteResult) string {
	var steps []string
	if r.DeleteErr != nil {
		steps = append(steps, fmt.Sprintf("delete: %v", r.DeleteErr))
	}
	if r.CreateErr != nil {
		steps = append(steps, fmt.Sprintf("create: %v", r.CreateErr))
	} else if !r.Created {
		steps = append(steps, "create skipped")
	}
	return fmt.Sprintf("%s %s [%s]", r.Route.RouteTableID, r.Route.DestinationCIDR, strings.Join(steps, ", "))
}

type DecommissionError struct {
	Action Decommission
	Failed []InstanceResult
}

func (e *DecommissionError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, r := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %v", r.InstanceID, r.Err))
	}
	return fmt.Sprintf("%s instances: %s", e.Action, strings.Join(parts, "; "))
}

func (e *DecommissionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, r := range e.Failed {
		errs = append(errs, r.Err)
	}
	return errs
}
