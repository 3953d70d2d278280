package service

import (
	"testing"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyExtractor(t *testing.T) {
	bom := &cyclonedx.BOM{
		Components: &[]cyclonedx.Component{
			{Name: "serde", PackageURL: "pkg:cargo/serde@1.0.0"},
			{Name: "tokio", PackageURL: "pkg:cargo/tokio@1.38.0"},
			{Name: "internal-lib"}, // no purl
			{Name: "serde-again", PackageURL: "pkg:cargo/serde@1.0.0"},
		},
	}

	items, skipped, err := (&dependencyExtractor{}).Extract(bom)
	require.NoError(t, err)

	assert.Len(t, items, 2)
	assert.Equal(t, int64(1), items["pkg:cargo/serde@1.0.0"].Int64())
	assert.Equal(t, int64(1), items["pkg:cargo/tokio@1.38.0"].Int64())
	assert.Equal(t, []string{"internal-lib"}, skipped)
}

func TestDependencyExtractorNoComponents(t *testing.T) {
	items, skipped, err := (&dependencyExtractor{}).Extract(&cyclonedx.BOM{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, skipped)
}

func TestGetExtractorUnknown(t *testing.T) {
	_, err := getExtractor("nope")
	require.Error(t, err)
}

func TestGetAccumulatorUnknown(t *testing.T) {
	_, err := getAccumulator("nope")
	require.Error(t, err)
}
