package vpc

type VPCInfo struct {
	VPCID     string
	Name      string
	CIDR      string
	IsDefault bool
}

type RouteTableInfo struct {
	RouteTableID string
	Routes       []RouteEntry
	Associations []RouteTableAssociation
}

type RouteEntry struct {
	Destination  string // CIDR or prefix list
	GatewayID    string
	InstanceID   string
	NatGatewayID string
}

// RouteTableAssociation is an explicit subnet association. The main
// association, which has no subnet, is not listed.
type RouteTableAssociation struct {
	SubnetID string
}

type NATGatewayInfo struct {
	GatewayID    string
	State        string // available, pending, failed, deleting, deleted
	SubnetID     string
	AllocationID string
	ElasticIP    string
}

// CreateNATGatewayInput describes a public NAT gateway to create.
type CreateNATGatewayInput struct {
	SubnetID     string
	AllocationID string
	Name         string
	ClientToken  string
}
