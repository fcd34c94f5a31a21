package natconv

// State is a step of a migration run.
type State int

const (
	StateSelectingNetwork State = iota
	StateValidating
	StatePlanning
	StateProvisioningEIP
	StateCreatingGateway
	StateWaitingReady
	StateCuttingOver
	StateDecommissioning
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StateSelectingNetwork: "SELECTING_NETWORK",
	StateValidating:       "VALIDATING",
	StatePlanning:         "PLANNING",
	StateProvisioningEIP:  "PROVISIONING_EIP",
	StateCreatingGateway:  "CREATING_GATEWAY",
	StateWaitingReady:     "WAITING_READY",
	StateCuttingOver:      "CUTTING_OVER",
	StateDecommissioning:  "DECOMMISSIONING",
	StateDone:             "DONE",
	StateAborted:          "ABORTED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no further operations are valid.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
