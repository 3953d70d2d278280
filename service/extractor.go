package service

import (
	"math/big"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/pkg/errors"

	"sbom-proof-service/logger"
)

// extractor canonicalizes an SBOM into the key set committed by the
// accumulator. Components it cannot identify are reported back as skipped.
type extractor interface {
	Extract(bom *cyclonedx.BOM) (map[string]*big.Int, []string, error)
}

func getExtractor(name string) (extractor, error) {
	switch name {
	case "dependency":
		return &dependencyExtractor{}, nil
	default:
		return nil, errors.Errorf("unknown extractor: %s", name)
	}
}

// dependencyExtractor maps every component's package URL to value 1.
// Duplicate purls collapse; components without a purl are skipped.
type dependencyExtractor struct{}

var valueOne = big.NewInt(1)

func (e *dependencyExtractor) Extract(bom *cyclonedx.BOM) (map[string]*big.Int, []string, error) {
	items := make(map[string]*big.Int)
	var skipped []string

	if bom.Components == nil {
		return items, nil, nil
	}

	log := logger.Logger()
	for _, comp := range *bom.Components {
		if comp.PackageURL == "" {
			log.Debug().Str("component", comp.Name).Msg("component has no purl, skipping")
			skipped = append(skipped, comp.Name)
			continue
		}
		items[comp.PackageURL] = valueOne
	}

	return items, skipped, nil
}
