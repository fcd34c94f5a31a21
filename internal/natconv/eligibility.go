package natconv

import (
	"context"
	"errors"
	"fmt"
)

// IsConvertible reports whether the route's instance has source/destination
// checking disabled. Lookup failures, including a missing attribute, are
// returned rather than treated as ineligible.
func (a *Analyzer) IsConvertible(ctx context.Context, r LegacyNatRoute) (bool, error) {
	check, err := a.gw.SourceDestCheck(ctx, r.InstanceID)
	if err != nil {
		return false, fmt.Errorf("source/dest check for %s: %w", r.InstanceID, err)
	}
	return !check, nil
}

// ConvertibleInstances re-reads routing and eligibility on every call.
func (a *Analyzer) ConvertibleInstances(ctx context.Context, vpcID string) ([]LegacyNatRoute, error) {
	topo, err := a.Topology(ctx, vpcID)
	if err != nil {
		return nil, err
	}
	convertible, _, err := a.partition(ctx, topo.LegacyNatRoutes)
	return convertible, err
}

// BuildPlan classifies the network and splits its NAT routes into convertible
// and skipped sets.
func (a *Analyzer) BuildPlan(ctx context.Context, network Network) (Plan, error) {
	topo, err := a.Topology(ctx, network.ID)
	if err != nil {
		return Plan{}, err
	}
	convertible, skipped, err := a.partition(ctx, topo.LegacyNatRoutes)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Network:     network,
		Topology:    topo,
		Convertible: convertible,
		Skipped:     skipped,
	}, nil
}

// partition queries each distinct instance once per call.
func (a *Analyzer) partition(ctx context.Context, routes []LegacyNatRoute) (convertible, skipped []LegacyNatRoute, err error) {
	verdicts := make(map[string]bool)
	failed := make(map[string]bool)
	var errs []error
	for _, r := range routes {
		if failed[r.InstanceID] {
			continue
		}
		ok, seen := verdicts[r.InstanceID]
		if !seen {
			ok, err = a.IsConvertible(ctx, r)
			if err != nil {
				failed[r.InstanceID] = true
				errs = append(errs, err)
				continue
			}
			verdicts[r.InstanceID] = ok
		}
		if ok {
			convertible = append(convertible, r)
		} else {
			skipped = append(skipped, r)
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return convertible, skipped, nil
}
