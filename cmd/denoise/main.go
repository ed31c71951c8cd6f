// Command denoise runs thermal noise removal on one scene bundle: a JSON
// file carrying the annotation tables and the measured digital numbers for
// a single polarization channel. Results are written as a JSON document
// with the denoised backscatter, the subtracted noise field, and optional
// boundary quality diagnostics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/caarlos0/env/v10"

	"github.com/signalsfoundry/sar-denoise/coeffs"
	"github.com/signalsfoundry/sar-denoise/core"
	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/internal/observability"
	"github.com/signalsfoundry/sar-denoise/model"
)

type config struct {
	Algorithm         string `env:"DENOISE_ALGORITHM" envDefault:"NERSC"`
	PreservePower     bool   `env:"DENOISE_PRESERVE_POWER" envDefault:"false"`
	LocalCompensation bool   `env:"DENOISE_LOCAL_COMPENSATION" envDefault:"false"`
	CoefficientsPath  string `env:"DENOISE_COEFFICIENTS"`
	MetricsAddr       string `env:"METRICS_ADDR"`
}

// sceneBundle is the input contract: annotation tables plus the flattened
// row-major digital number raster.
type sceneBundle struct {
	Annotation model.Annotation `json:"annotation"`
	DN         []float64        `json:"dn"`
}

type output struct {
	Lines     int                    `json:"lines"`
	Pixels    int                    `json:"pixels"`
	Sigma0        floatArray             `json:"sigma0"`
	NESZ          floatArray             `json:"nesz"`
	SubswathIndex floatArray             `json:"subswath_index"`
	RawSigma0     floatArray             `json:"raw_sigma0,omitempty"`
	Quality       []core.BoundaryQuality `json:"quality,omitempty"`
}

// floatArray marshals like []float64 but encodes non-finite values as null,
// which encoding/json otherwise rejects.
type floatArray []float64

func (a floatArray) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(a)*8+2)
	buf = append(buf, '[')
	for i, v := range a {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

func main() {
	inPath := flag.String("in", "", "path to the scene bundle JSON")
	outPath := flag.String("out", "", "path for the result JSON (default stdout)")
	algorithm := flag.String("algorithm", "", "override DENOISE_ALGORITHM (ESA or NERSC)")
	withRQM := flag.Bool("rqm", false, "compute the boundary quality metric")
	withRaw := flag.Bool("raw", false, "include the uncorrected backscatter in the output")
	flag.Parse()

	log := logging.NewFromEnv()
	if err := run(*inPath, *outPath, *algorithm, *withRQM, *withRaw, log); err != nil {
		log.Error("denoise failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(inPath, outPath, algorithm string, withRQM, withRaw bool, log logging.Logger) error {
	if inPath == "" {
		return fmt.Errorf("missing required -in flag")
	}
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if algorithm != "" {
		cfg.Algorithm = algorithm
	}

	ctx := context.Background()
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdown(ctx)

	metrics, err := observability.NewPipelineCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
				log.Error("metrics server stopped", logging.Err(err))
			}
		}()
	}

	store := coeffs.NewStore(log, metrics)
	if cfg.CoefficientsPath != "" {
		f, err := os.Open(cfg.CoefficientsPath)
		if err != nil {
			return fmt.Errorf("open coefficients: %w", err)
		}
		err = store.LoadJSON(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	bundle, dn, err := loadBundle(inPath)
	if err != nil {
		return err
	}

	denoiser := core.NewDenoiser(store, log, metrics)
	result, err := denoiser.Run(ctx, &bundle.Annotation, dn, core.Options{
		Algorithm:              core.Algorithm(cfg.Algorithm),
		PreserveTotalPower:     cfg.PreservePower,
		LocalPowerCompensation: cfg.LocalCompensation,
	})
	if err != nil {
		return err
	}

	out := output{
		Lines:         result.Sigma0.Lines,
		Pixels:        result.Sigma0.Pixels,
		Sigma0:        result.Sigma0.Data,
		NESZ:          result.NESZ.Data,
		SubswathIndex: result.SubswathIndex.Data,
	}
	if withRaw {
		out.RawSigma0 = result.RawSigma0.Data
	}
	if withRQM {
		scene, err := core.NewScene(&bundle.Annotation, log)
		if err != nil {
			return err
		}
		out.Quality, err = scene.RangeQualityMetric(result.Sigma0)
		if err != nil {
			return fmt.Errorf("quality metric: %w", err)
		}
	}
	return writeOutput(outPath, &out)
}

func loadBundle(path string) (*sceneBundle, *core.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open scene bundle: %w", err)
	}
	defer f.Close()
	var bundle sceneBundle
	if err := json.NewDecoder(f).Decode(&bundle); err != nil {
		return nil, nil, fmt.Errorf("decode scene bundle: %w", err)
	}
	shape := bundle.Annotation.Shape
	if len(bundle.DN) != shape.Lines*shape.Pixels {
		return nil, nil, fmt.Errorf("dn length %d does not match shape %dx%d",
			len(bundle.DN), shape.Lines, shape.Pixels)
	}
	dn := &core.Raster{Lines: shape.Lines, Pixels: shape.Pixels, Data: bundle.DN}
	return &bundle, dn, nil
}

func writeOutput(path string, out *output) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}
