package model

import "os"

// Project describes the build the bundle is produced for.
type Project struct {
	ArtifactID          string
	BuildDirectory      Path
	OutputDirectory     Path
	TestOutputDirectory Path
}

// Interpolate expands ${project.*} placeholders in s. Unknown placeholders are kept.
func (p Project) Interpolate(s string) string {
	return os.Expand(s, func(key string) string {
		switch key {
		case "project.artifactId":
			return p.ArtifactID
		case "project.build.directory":
			return string(p.BuildDirectory)
		case "project.build.outputDirectory":
			return string(p.OutputDirectory)
		case "project.build.testOutputDirectory":
			return string(p.TestOutputDirectory)
		default:
			return "${" + key + "}"
		}
	})
}
