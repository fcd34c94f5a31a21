package prompt

import (
	"fmt"

	"tasnim.dev/nat-convert/internal/natconv"
)

// Fixed answers every prompt from preset values. It backs --yes runs.
type Fixed struct {
	Index  string
	Accept bool
	// Subnet defaults to the first offered subnet when empty.
	Subnet       string
	Decommission natconv.Decommission
}

func (f *Fixed) SelectIndex(msg string, labels []string) (string, error) {
	if f.Index == "" {
		return "", fmt.Errorf("%s: no selection given", msg)
	}
	return f.Index, nil
}

func (f *Fixed) Confirm(msg string, def bool) (bool, error) {
	return f.Accept, nil
}

func (f *Fixed) SelectSubnet(msg string, subnetIDs []string) (string, error) {
	if f.Subnet != "" {
		return f.Subnet, nil
	}
	if len(subnetIDs) == 0 {
		return "", natconv.ErrNoPublicSubnet
	}
	return subnetIDs[0], nil
}

func (f *Fixed) SelectDecommission(msg string, instanceIDs []string) (natconv.Decommission, error) {
	return f.Decommission, nil
}
