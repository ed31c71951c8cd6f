// Package coeffs holds the fitted denoising coefficients and resolves the
// set matching a product's platform and processor version. Missing entries
// degrade to identity coefficients so that a denoising run never fails for
// lack of calibration data.
package coeffs

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/internal/observability"
	"github.com/signalsfoundry/sar-denoise/model"
)

// versionOverride remaps an annotated processor version to the version
// whose coefficients actually match the product.
type versionOverride struct {
	platform string
	version  float64
	onAfter  time.Time
	mapsTo   float64
}

// The S1B auxiliary scaling tables changed on 2017-01-16 without a
// processor version bump; products annotated 2.72 after that instant
// behave like 2.8.
var versionOverrides = []versionOverride{
	{
		platform: "S1B",
		version:  2.72,
		onAfter:  time.Date(2017, 1, 16, 13, 42, 34, 0, time.UTC),
		mapsTo:   2.8,
	},
}

// EffectiveVersion returns the processor version to use for coefficient
// lookup, applying any special-case overrides.
func EffectiveVersion(platform string, version float64, sensingStart time.Time) float64 {
	for _, ov := range versionOverrides {
		if ov.platform == platform && ov.version == version && !sensingStart.Before(ov.onAfter) {
			return ov.mapsTo
		}
	}
	return version
}

// Store indexes coefficient sets by platform and processor version rounded
// to one decimal. Reads are lock-free; populate the store before use.
type Store struct {
	log     logging.Logger
	metrics *observability.PipelineCollector
	sets    map[string]model.CoefficientSet
}

// NewStore returns an empty store. Logger and metrics may be nil.
func NewStore(log logging.Logger, metrics *observability.PipelineCollector) *Store {
	if log == nil {
		log = logging.Noop()
	}
	return &Store{
		log:     log,
		metrics: metrics,
		sets:    make(map[string]model.CoefficientSet),
	}
}

func key(platform string, version float64) string {
	return fmt.Sprintf("%s/%.1f", platform, version)
}

// Add registers one coefficient set, replacing any existing entry for the
// same platform and version.
func (s *Store) Add(set model.CoefficientSet) {
	s.sets[key(set.Platform, set.IPFVersion)] = set
}

// LoadJSON reads an array of coefficient sets from r and registers them.
func (s *Store) LoadJSON(r io.Reader) error {
	var sets []model.CoefficientSet
	if err := json.NewDecoder(r).Decode(&sets); err != nil {
		return fmt.Errorf("decode coefficient sets: %w", err)
	}
	for _, set := range sets {
		s.Add(set)
	}
	return nil
}

// Coefficients resolves the per-subswath coefficients for one product.
// Every requested subswath gets an entry: missing sets or subswaths fall
// back to identity coefficients with a warning.
func (s *Store) Coefficients(platform string, version float64, sensingStart time.Time, subswaths []string) map[string]model.SubswathCoefficients {
	version = EffectiveVersion(platform, version, sensingStart)
	out := make(map[string]model.SubswathCoefficients, len(subswaths))
	set, ok := s.sets[key(platform, version)]
	for _, name := range subswaths {
		if sc, found := set.Subswaths[name]; ok && found {
			out[name] = sc
			continue
		}
		s.log.Warn("no denoising coefficients, using identity",
			logging.String("platform", platform),
			logging.Float("ipf_version", version),
			logging.String("subswath", name))
		s.metrics.RecordCoefficientFallback()
		out[name] = model.IdentityCoefficients()
	}
	return out
}
