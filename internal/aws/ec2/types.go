package ec2

// EC2Instance is the slice of instance detail shown when planning a
// conversion.
type EC2Instance struct {
	Name       string
	InstanceID string
	Type       string
	State      string
	PrivateIP  string
	PublicIP   string
}
