package trace

import "fmt"

// Cluster identifies the target blockchain network.
type Cluster string

const (
	ClusterMainnet  Cluster = "mainnet"
	ClusterDevnet   Cluster = "devnet"
	ClusterTestnet  Cluster = "testnet"
	ClusterLocalnet Cluster = "localnet"
)

// InvalidClusterError reports an unknown cluster name at a request boundary.
type InvalidClusterError struct {
	Name string
}

func (e *InvalidClusterError) Error() string {
	return fmt.Sprintf("invalid cluster %q (expected mainnet, devnet, testnet or localnet)", e.Name)
}

// ParseCluster validates a cluster name. "mainnet-beta" is accepted as an
// alias for mainnet to match common RPC tooling.
func ParseCluster(name string) (Cluster, error) {
	switch Cluster(name) {
	case ClusterMainnet, ClusterDevnet, ClusterTestnet, ClusterLocalnet:
		return Cluster(name), nil
	}
	if name == "mainnet-beta" {
		return ClusterMainnet, nil
	}
	return "", &InvalidClusterError{Name: name}
}

// Valid reports whether c is one of the known clusters.
func (c Cluster) Valid() bool {
	_, err := ParseCluster(string(c))
	return err == nil
}
