// Command fit-coefficients estimates denoising coefficients from a scene
// bundle: per-subswath noise scaling factors and interswath power balancing
// offsets. The output is a coefficient set JSON that the denoise command
// accepts through DENOISE_COEFFICIENTS (wrapped in a one-element array).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/signalsfoundry/sar-denoise/coeffs"
	"github.com/signalsfoundry/sar-denoise/core"
	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/internal/observability"
	"github.com/signalsfoundry/sar-denoise/model"
)

type sceneBundle struct {
	Annotation model.Annotation `json:"annotation"`
	DN         []float64        `json:"dn"`
}

func main() {
	inPath := flag.String("in", "", "path to the scene bundle JSON")
	outPath := flag.String("out", "", "path for the coefficient set JSON (default stdout)")
	flag.Parse()

	log := logging.NewFromEnv()
	if err := run(*inPath, *outPath, log); err != nil {
		log.Error("coefficient fitting failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(inPath, outPath string, log logging.Logger) error {
	if inPath == "" {
		return fmt.Errorf("missing required -in flag")
	}
	ctx := context.Background()
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdown(ctx)

	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open scene bundle: %w", err)
	}
	var bundle sceneBundle
	err = json.NewDecoder(f).Decode(&bundle)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode scene bundle: %w", err)
	}
	shape := bundle.Annotation.Shape
	if len(bundle.DN) != shape.Lines*shape.Pixels {
		return fmt.Errorf("dn length %d does not match shape %dx%d",
			len(bundle.DN), shape.Lines, shape.Pixels)
	}
	dn := &core.Raster{Lines: shape.Lines, Pixels: shape.Pixels, Data: bundle.DN}

	denoiser := core.NewDenoiser(nil, log, nil)
	set, err := denoiser.FitCoefficients(ctx, &bundle.Annotation, dn)
	if err != nil {
		return err
	}
	set.IPFVersion = coeffs.EffectiveVersion(
		set.Platform, set.IPFVersion, bundle.Annotation.SensingStart)

	w := os.Stdout
	if outPath != "" {
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()
		w = out
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}
