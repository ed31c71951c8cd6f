package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/internal/observability"
	"github.com/signalsfoundry/sar-denoise/model"
)

// Algorithm selects the noise reconstruction variant.
type Algorithm string

const (
	// AlgorithmESA reconstructs the noise field exactly as annotated and
	// clips negative output power to zero.
	AlgorithmESA Algorithm = "ESA"
	// AlgorithmNERSC additionally aligns the noise vectors, removes
	// scalloping, and applies the fitted scaling and balancing
	// coefficients; unreliable output pixels become NaN.
	AlgorithmNERSC Algorithm = "NERSC"
)

// Processor version gates. Scalloping compensation only applies to the
// window where products carry no azimuth noise vectors of their own; below
// the calibration floor the annotated noise vectors are unreliable.
const (
	scallopingVersionMin = 2.5
	scallopingVersionMax = 2.9
	calibratedVersionMin = 2.43
)

// Pre-scaling constants for products whose noise vectors were annotated on
// the pre-calibration digital number scale.
var (
	lowNoiseThresholdDB = -40.0
	modeGain            = map[string]float64{"IW": 474, "EW": 1087}
)

// CoefficientProvider resolves fitted denoising coefficients for one
// product. Implementations must return an entry for every requested
// subswath.
type CoefficientProvider interface {
	Coefficients(platform string, version float64, sensingStart time.Time, subswaths []string) map[string]model.SubswathCoefficients
}

// Options configure one denoising run.
type Options struct {
	Algorithm Algorithm
	// PreserveTotalPower adds the mean subtracted noise power back so the
	// scene keeps its overall brightness.
	PreserveTotalPower bool
	// LocalPowerCompensation enables the adaptive SNR-dependent residual
	// scaling. Only applied to cross-polarization channels.
	LocalPowerCompensation bool
}

// Result carries the outputs of one denoising run.
type Result struct {
	// Sigma0 is the noise-subtracted backscatter raster.
	Sigma0 *Raster
	// NESZ is the reconstructed noise-equivalent sigma nought that was
	// subtracted.
	NESZ *Raster
	// RawSigma0 is the calibrated backscatter before subtraction.
	RawSigma0 *Raster
	// SubswathIndex assigns each pixel its one-based subswath number, or
	// zero where no subswath covers it.
	SubswathIndex *Raster
}

// Denoiser runs the thermal noise removal pipeline on annotated scenes.
type Denoiser struct {
	log     logging.Logger
	metrics *observability.PipelineCollector
	coeffs  CoefficientProvider
	tracer  trace.Tracer
}

// NewDenoiser wires the pipeline. Logger, metrics, and coefficient
// provider may each be nil: logging is dropped, metrics are no-ops, and
// coefficients fall back to identity.
func NewDenoiser(coeffs CoefficientProvider, log logging.Logger, metrics *observability.PipelineCollector) *Denoiser {
	if log == nil {
		log = logging.Noop()
	}
	return &Denoiser{
		log:     log,
		metrics: metrics,
		coeffs:  coeffs,
		tracer:  otel.Tracer(observability.TracerName),
	}
}

// Run denoises one polarization channel: dn holds the measured digital
// numbers at the annotated image shape.
func (d *Denoiser) Run(ctx context.Context, ann *model.Annotation, dn *Raster, opts Options) (*Result, error) {
	if opts.Algorithm != AlgorithmESA && opts.Algorithm != AlgorithmNERSC {
		return nil, fmt.Errorf("%w: algorithm %q", ErrInvalidDimension, opts.Algorithm)
	}
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "denoise.run", trace.WithAttributes(
		attribute.String("algorithm", string(opts.Algorithm)),
		attribute.String("platform", ann.Platform),
		attribute.String("polarization", ann.Polarization),
		attribute.Float64("ipf_version", ann.IPFVersion),
	))
	defer span.End()

	scene, err := NewScene(ann, d.log)
	if err != nil {
		return nil, err
	}
	scene.SetMetrics(d.metrics)
	if dn.Lines != ann.Shape.Lines || dn.Pixels != ann.Shape.Pixels {
		return nil, fmt.Errorf("%w: measurement %dx%d vs annotation %dx%d",
			ErrInvalidDimension, dn.Lines, dn.Pixels, ann.Shape.Lines, ann.Shape.Pixels)
	}
	if ann.IPFVersion < calibratedVersionMin {
		d.log.Warn("noise vectors predate processor calibration, output quality is degraded",
			logging.Float("ipf_version", ann.IPFVersion))
	}

	rawSigma0 := d.rawSigma0(ctx, scene, dn)

	var nesz *Raster
	switch opts.Algorithm {
	case AlgorithmESA:
		nesz = d.rawNESZ(ctx, scene, false)
	case AlgorithmNERSC:
		nesz, err = d.correctedNESZ(ctx, scene, rawSigma0, opts)
		if err != nil {
			return nil, err
		}
	}

	_, subSpan := d.tracer.Start(ctx, "denoise.subtract")
	sigma0 := rawSigma0.Clone()
	for i := range sigma0.Data {
		sigma0.Data[i] -= nesz.Data[i]
	}
	if opts.PreserveTotalPower {
		mean := nesz.NaNMean()
		for i := range sigma0.Data {
			sigma0.Data[i] += mean
		}
	}
	switch opts.Algorithm {
	case AlgorithmESA:
		for i, v := range sigma0.Data {
			if v < 0 {
				sigma0.Data[i] = 0
			}
		}
	case AlgorithmNERSC:
		for i, raw := range rawSigma0.Data {
			if raw == 0 || raw < 1e-4 {
				sigma0.Data[i] = math.NaN()
			}
		}
	}
	subSpan.End()

	d.metrics.RecordRun(string(opts.Algorithm), time.Since(start).Seconds())
	d.log.Info("denoising complete",
		logging.String("algorithm", string(opts.Algorithm)),
		logging.Float("duration_s", time.Since(start).Seconds()),
		logging.Float("nan_fraction", sigma0.NaNFraction()))
	return &Result{
		Sigma0:        sigma0,
		NESZ:          nesz,
		RawSigma0:     rawSigma0,
		SubswathIndex: scene.SubswathIndexMap(),
	}, nil
}

// rawSigma0 computes calibrated backscatter: DN^2 over the squared dense
// calibration raster.
func (d *Denoiser) rawSigma0(ctx context.Context, s *Scene, dn *Raster) *Raster {
	_, span := d.tracer.Start(ctx, "denoise.raw_sigma0")
	defer span.End()
	cal := s.CalibrationMap()
	out := NewRaster(dn.Lines, dn.Pixels)
	for i, v := range dn.Data {
		c := cal.Data[i]
		out.Data[i] = v * v / (c * c)
	}
	return out
}

// rawNESZ reconstructs the annotated noise-equivalent sigma nought and
// rescales it when the product carries uncalibrated low-magnitude noise
// vectors.
func (d *Denoiser) rawNESZ(ctx context.Context, s *Scene, align bool) *Raster {
	_, span := d.tracer.Start(ctx, "denoise.raw_nesz",
		trace.WithAttributes(attribute.Bool("align", align)))
	defer span.End()
	noise := s.NoiseRangeMap(align)
	cal := s.CalibrationMap()
	for i, c := range cal.Data {
		noise.Data[i] /= c * c
	}
	if 10*math.Log10(noise.NaNMean()) < lowNoiseThresholdDB {
		d.log.Info("low noise power, applying pre-calibration scaling")
		swathIndex := s.SubswathIndexMap()
		for i := range s.Ann.Subswaths {
			gain := s.Ann.Subswaths[i].ProcessorScalingFactor
			if gain == 0 {
				gain = modeGain[s.Ann.Mode]
			}
			calFactor := s.Ann.Subswaths[i].NoiseCalibrationFactor
			if calFactor == 0 {
				d.log.Warn("noise calibration factor missing, skipping pre-calibration scaling",
					logging.String("subswath", s.Ann.Subswaths[i].Name))
				continue
			}
			factor := gain * gain * calFactor
			want := float64(i + 1)
			for j, idx := range swathIndex.Data {
				if idx == want {
					noise.Data[j] *= factor
				}
			}
		}
	}
	return noise
}

// correctedNESZ applies the full correction chain: aligned reconstruction,
// scalloping compensation for the affected processor versions, the fitted
// scaling and balancing coefficients, and optionally the adaptive local
// scaler for cross-polarization channels.
func (d *Denoiser) correctedNESZ(ctx context.Context, s *Scene, rawSigma0 *Raster, opts Options) (*Raster, error) {
	ctx, span := d.tracer.Start(ctx, "denoise.corrected_nesz")
	defer span.End()
	nesz := d.rawNESZ(ctx, s, true)

	if s.Ann.IPFVersion >= scallopingVersionMin && s.Ann.IPFVersion < scallopingVersionMax {
		gain, err := s.ScallopingGainMap()
		if err != nil {
			return nil, fmt.Errorf("scalloping gain: %w", err)
		}
		for i := range nesz.Data {
			nesz.Data[i] *= gain.Data[i]
		}
	}

	coeffs := d.lookupCoefficients(s.Ann)
	swathIndex := s.SubswathIndexMap()
	for i := range s.Ann.Subswaths {
		sc := coeffs[s.Ann.Subswaths[i].Name]
		want := float64(i + 1)
		for j, idx := range swathIndex.Data {
			if idx == want {
				nesz.Data[j] = nesz.Data[j]*sc.ScalingFactor + sc.BalancingOffset
			}
		}
	}

	if opts.LocalPowerCompensation && crossPol(s.Ann.Polarization) {
		if _, err := s.AdaptiveNoiseScaling(rawSigma0, nesz, coeffs); err != nil {
			return nil, fmt.Errorf("adaptive noise scaling: %w", err)
		}
	}
	return nesz, nil
}

func (d *Denoiser) lookupCoefficients(ann *model.Annotation) map[string]model.SubswathCoefficients {
	names := make([]string, len(ann.Subswaths))
	for i := range ann.Subswaths {
		names[i] = ann.Subswaths[i].Name
	}
	if d.coeffs == nil {
		out := make(map[string]model.SubswathCoefficients, len(names))
		for _, name := range names {
			out[name] = model.IdentityCoefficients()
		}
		return out
	}
	return d.coeffs.Coefficients(ann.Platform, ann.IPFVersion, ann.SensingStart, names)
}

func crossPol(p string) bool { return p == "HV" || p == "VH" }
