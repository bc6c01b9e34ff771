package model

import "fmt"

// Artifact is a dependency archive that was already resolved by the caller.
type Artifact struct {
	GroupID    string `mapstructure:"group_id" yaml:"group_id"`
	ArtifactID string `mapstructure:"artifact_id" yaml:"artifact_id"`
	Version    string `mapstructure:"version" yaml:"version"`
	Scope      Scope  `mapstructure:"scope" yaml:"scope"`
	Path       Path   `mapstructure:"path" yaml:"path"`
}

// Coordinates returns group:artifact:version, omitting empty parts at the edges.
func (a Artifact) Coordinates() string {
	switch {
	case a.GroupID == "" && a.Version == "":
		return a.ArtifactID
	case a.Version == "":
		return fmt.Sprintf("%s:%s", a.GroupID, a.ArtifactID)
	case a.GroupID == "":
		return fmt.Sprintf("%s:%s", a.ArtifactID, a.Version)
	default:
		return fmt.Sprintf("%s:%s:%s", a.GroupID, a.ArtifactID, a.Version)
	}
}
