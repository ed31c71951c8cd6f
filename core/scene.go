package core

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/internal/observability"
	"github.com/signalsfoundry/sar-denoise/model"
)

// Scene owns every intermediate product derived from one polarization
// channel's annotation: the subswath index map, the dense calibration and
// noise rasters, geolocation interpolators, and the orbit fit. Expensive
// products are memoized on first use.
//
// A Scene is confined to a single denoising request and must not be shared
// across goroutines; subswath loops inside a request may still be
// parallelized by callers because they write disjoint pixel regions.
type Scene struct {
	Ann *model.Annotation

	log     logging.Logger
	metrics *observability.PipelineCollector

	swathIndex  *Raster
	calibration *Raster
	geo         *geoGrid
	orbit       *OrbitInterpolator
	orbitErr    error
	roll        *Interp1D
}

// NewScene validates the annotation tables and wraps them. The logger may be
// nil, in which case logging is dropped.
func NewScene(ann *model.Annotation, log logging.Logger) (*Scene, error) {
	if log == nil {
		log = logging.Noop()
	}
	if ann.Shape.Lines <= 0 || ann.Shape.Pixels <= 0 {
		return nil, fmt.Errorf("%w: image shape %dx%d", ErrInvalidDimension, ann.Shape.Lines, ann.Shape.Pixels)
	}
	if len(ann.Subswaths) == 0 {
		return nil, fmt.Errorf("%w: annotation has no subswaths", ErrNoValidSamples)
	}
	for i := range ann.Subswaths {
		if len(ann.Subswaths[i].Segments) == 0 {
			return nil, fmt.Errorf("%w: subswath %s has no segments", ErrNoValidSamples, ann.Subswaths[i].Name)
		}
	}
	return &Scene{Ann: ann, log: log}, nil
}

// SetMetrics attaches a pipeline collector. A nil collector is valid and
// all recording becomes a no-op.
func (s *Scene) SetMetrics(m *observability.PipelineCollector) {
	s.metrics = m
}

// Orbit returns the memoized orbit interpolator.
func (s *Scene) Orbit() (*OrbitInterpolator, error) {
	if s.orbit == nil && s.orbitErr == nil {
		s.orbit, s.orbitErr = NewOrbitInterpolator(s.Ann)
	}
	return s.orbit, s.orbitErr
}

// geoGrid holds bilinear interpolators over the annotated geolocation grid
// points, one per field the pipeline consumes.
type geoGrid struct {
	lines  []float64
	pixels []float64

	azimuthTime    *Grid2D
	slantRangeTime *Grid2D
	incidence      *Grid2D
	elevation      *Grid2D
}

// Geo returns the memoized geolocation grid interpolators.
func (s *Scene) Geo() (*geoGrid, error) {
	if s.geo != nil {
		return s.geo, nil
	}
	g, err := newGeoGrid(s.Ann)
	if err != nil {
		return nil, err
	}
	s.geo = g
	return g, nil
}

func newGeoGrid(ann *model.Annotation) (*geoGrid, error) {
	pts := ann.GeolocationGrid
	if len(pts) < 4 {
		return nil, fmt.Errorf("%w: %d geolocation grid points", ErrNoValidSamples, len(pts))
	}
	lines := uniqueSorted(func(i int) int { return pts[i].Line }, len(pts))
	pixels := uniqueSorted(func(i int) int { return pts[i].Pixel }, len(pts))
	if len(lines)*len(pixels) != len(pts) {
		return nil, fmt.Errorf("%w: geolocation grid is not rectangular (%d lines x %d pixels != %d points)",
			ErrInvalidDimension, len(lines), len(pixels), len(pts))
	}

	lineIdx := indexOf(lines)
	pixelIdx := indexOf(pixels)
	shape := func() [][]float64 {
		g := make([][]float64, len(lines))
		for i := range g {
			g[i] = make([]float64, len(pixels))
		}
		return g
	}
	azGrid, srGrid, incGrid, elGrid := shape(), shape(), shape(), shape()
	for _, p := range pts {
		i, j := lineIdx[p.Line], pixelIdx[p.Pixel]
		azGrid[i][j] = ann.RelSeconds(p.AzimuthTime)
		srGrid[i][j] = p.SlantRangeTime
		incGrid[i][j] = p.IncidenceAngle
		elGrid[i][j] = p.ElevationAngle
	}

	ys := make([]float64, len(lines))
	for i, l := range lines {
		ys[i] = float64(l)
	}
	xs := make([]float64, len(pixels))
	for j, p := range pixels {
		xs[j] = float64(p)
	}

	g := &geoGrid{lines: ys, pixels: xs}
	var err error
	if g.azimuthTime, err = NewGrid2D(ys, xs, azGrid); err != nil {
		return nil, err
	}
	if g.slantRangeTime, err = NewGrid2D(ys, xs, srGrid); err != nil {
		return nil, err
	}
	if g.incidence, err = NewGrid2D(ys, xs, incGrid); err != nil {
		return nil, err
	}
	if g.elevation, err = NewGrid2D(ys, xs, elGrid); err != nil {
		return nil, err
	}
	return g, nil
}

// IncidenceAngleMap densifies the annotated incidence angle over the full
// image.
func (s *Scene) IncidenceAngleMap() (*Raster, error) {
	g, err := s.Geo()
	if err != nil {
		return nil, err
	}
	out := NewRaster(s.Ann.Shape.Lines, s.Ann.Shape.Pixels)
	for line := 0; line < out.Lines; line++ {
		row := out.Row(line)
		for pixel := range row {
			row[pixel] = g.incidence.At(float64(line), float64(pixel))
		}
	}
	return out, nil
}

func uniqueSorted(at func(int) int, n int) []int {
	seen := map[int]bool{}
	var out []int
	for i := 0; i < n; i++ {
		v := at(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func indexOf(a []int) map[int]int {
	m := make(map[int]int, len(a))
	for i, v := range a {
		m[v] = i
	}
	return m
}
