package chain

import "github.com/slotscribe/slotscribe/pkg/trace"

// Public RPC endpoints per cluster. Production deployments override these
// via cluster profiles or a per-request rpcUrl.
var defaultEndpoints = map[trace.Cluster]string{
	trace.ClusterMainnet:  "https://api.mainnet-beta.solana.com",
	trace.ClusterDevnet:   "https://api.devnet.solana.com",
	trace.ClusterTestnet:  "https://api.testnet.solana.com",
	trace.ClusterLocalnet: "http://127.0.0.1:8899",
}

// Endpoint resolves the RPC URL for a cluster. A non-empty override wins
// without cluster validation (callers validate the cluster at the request
// boundary regardless).
func Endpoint(cluster trace.Cluster, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	c, err := trace.ParseCluster(string(cluster))
	if err != nil {
		return "", err
	}
	return defaultEndpoints[c], nil
}
