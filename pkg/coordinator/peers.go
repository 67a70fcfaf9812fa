package coordinator

import (
	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/httpclient"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
)

// PeerClients builds one httpclient.Client per downstream agent role, each
// guarded by the breaker registered under that role's name (§4.2 — a
// misbehaving peer's breaker opens independently of the others). Shared by
// the Coordinator's own dispatch and by pkg/recovery's re-dispatch so both
// talk to peers through the identical retry/breaker-wrapped client.
func PeerClients(cfg *config.Config, breakers *breaker.Registry) map[config.Role]*httpclient.Client {
	roles := []config.Role{config.RoleRetrieval, config.RoleFilter, config.RoleSummarise, config.RoleAlert}
	out := make(map[config.Role]*httpclient.Client, len(roles))
	for _, role := range roles {
		opts := []httpclient.Option{
			httpclient.WithBreaker(breakers.Get(string(role))),
		}
		if cfg.A2AAPIKey != "" {
			opts = append(opts, httpclient.WithBearerToken(cfg.A2AAPIKey))
		}
		out[role] = httpclient.New(cfg.PeerURLs[role]+"/a2a", opts...)
	}
	return out
}
