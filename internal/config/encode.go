package config

import "gopkg.in/yaml.v3"

// Encode renders a Manifest back to YAML. It exists primarily to support
// round-trip testing (P1); the runtime itself only ever consumes manifests,
// it never produces them.
func Encode(m *Manifest) ([]byte, error) {
	raw := rawManifest{
		Forge:     m.Forge,
		Tools:     m.Tools,
		Resources: m.Resources,
		Prompts:   m.Prompts,
		State:     m.State,
	}
	return yaml.Marshal(raw)
}
