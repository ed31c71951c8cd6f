package core

import "math"

// Raster is a dense, image-shaped 2D field of float64 values stored row
// major. A NaN value means "no data" for that pixel, never zero.
type Raster struct {
	Lines  int
	Pixels int
	Data   []float64
}

// NewRaster returns a zero-filled raster of the given shape.
func NewRaster(lines, pixels int) *Raster {
	return &Raster{Lines: lines, Pixels: pixels, Data: make([]float64, lines*pixels)}
}

// NewNaNRaster returns a raster with every value set to NaN.
func NewNaNRaster(lines, pixels int) *Raster {
	r := NewRaster(lines, pixels)
	nan := math.NaN()
	for i := range r.Data {
		r.Data[i] = nan
	}
	return r
}

// NewFilledRaster returns a raster with every value set to v.
func NewFilledRaster(lines, pixels int, v float64) *Raster {
	r := NewRaster(lines, pixels)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

// At returns the value at (line, pixel).
func (r *Raster) At(line, pixel int) float64 {
	return r.Data[line*r.Pixels+pixel]
}

// Set stores v at (line, pixel).
func (r *Raster) Set(line, pixel int, v float64) {
	r.Data[line*r.Pixels+pixel] = v
}

// Row returns the backing slice for one image line.
func (r *Raster) Row(line int) []float64 {
	return r.Data[line*r.Pixels : (line+1)*r.Pixels]
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := &Raster{Lines: r.Lines, Pixels: r.Pixels, Data: make([]float64, len(r.Data))}
	copy(out.Data, r.Data)
	return out
}

// SameShape reports whether the two rasters have identical extents.
func (r *Raster) SameShape(other *Raster) bool {
	return r.Lines == other.Lines && r.Pixels == other.Pixels
}

// NaNMean returns the mean of all finite values, or NaN if there are none.
func (r *Raster) NaNMean() float64 {
	sum, n := 0.0, 0
	for _, v := range r.Data {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// NaNFraction returns the fraction of pixels holding NaN.
func (r *Raster) NaNFraction() float64 {
	if len(r.Data) == 0 {
		return 0
	}
	n := 0
	for _, v := range r.Data {
		if math.IsNaN(v) {
			n++
		}
	}
	return float64(n) / float64(len(r.Data))
}
