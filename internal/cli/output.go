package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cityscale/hypertransit/pkg/pipeline"
)

// artifactWriteParams bundles arguments for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	output    string
}

// writeArtifacts writes rendered artifacts to disk, one file per format,
// printing each path as it lands. Formats the renderer skipped are skipped
// here too.
func writeArtifacts(p artifactWriteParams) error {
	base := artifactBase(p.output)
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// artifactBase derives the base output path. A known format extension is
// stripped so "city.svg" and "city" address the same base; an empty output
// falls back to "network".
func artifactBase(output string) string {
	if output == "" {
		return "network"
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}
