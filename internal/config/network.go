package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

// ResolveNetwork builds the network named name from migrate.toml. An RPC
// URL missing from migrate.toml is taken from foundry.toml [rpc_endpoints].
func ResolveNetwork(project *config.ProjectConfig, name string, rpcEndpoints map[string]string) (*config.Network, error) {
	netCfg, ok := project.Networks[name]
	if !ok {
		return nil, unknownNetworkError(project, name)
	}

	network := &config.Network{
		Name:       name,
		ChainID:    netCfg.ChainID,
		RPCURL:     netCfg.RPCURL,
		Registrar:  netCfg.Registrar,
		PrivateKey: strings.TrimSpace(netCfg.PrivateKey),
		Local:      netCfg.Local,
	}

	if network.RPCURL == "" {
		network.RPCURL = rpcEndpoints[name]
	}
	if network.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url in %s and no entry in foundry.toml [rpc_endpoints]", name, ProjectFileName)
	}
	if network.Registrar != "" && !common.IsHexAddress(network.Registrar) {
		return nil, fmt.Errorf("network '%s' has an invalid registrar address %q", name, network.Registrar)
	}
	if !network.Local {
		network.Local = isLocalRPC(network.RPCURL)
	}

	return network, nil
}

func unknownNetworkError(project *config.ProjectConfig, name string) error {
	known := make([]string, 0, len(project.Networks))
	for n := range project.Networks {
		known = append(known, n)
	}
	sort.Strings(known)

	msg := fmt.Sprintf("network '%s' is not defined in %s", name, ProjectFileName)
	if matches := fuzzy.Find(name, known); len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean '%s'?)", matches[0].Str)
	} else if len(known) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(known, ", "))
	}
	return errors.New(msg)
}

func isLocalRPC(rpcURL string) bool {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "0.0.0.0", "::1":
		return true
	}
	return false
}
