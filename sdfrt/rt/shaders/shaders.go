package shaders

import (
	_ "embed"
	"strings"
)

//go:embed sdf_volume.wgsl
var sdfVolumeTemplate string

//go:embed slice_view.wgsl
var SliceViewWGSL string

// formatToken is replaced with the storage texel format of the volume.
const formatToken = "{{FORMAT}}"

// VolumeWGSL returns the volume kernel for the given storage texel format,
// e.g. "rgba16float".
func VolumeWGSL(format string) string {
	return strings.ReplaceAll(sdfVolumeTemplate, formatToken, format)
}
