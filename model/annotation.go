package model

import "time"

// ImageShape is the full raster extent of one polarization channel.
type ImageShape struct {
	Lines  int `json:"lines"`
	Pixels int `json:"pixels"`
}

// OrbitStateVector is one annotated platform state sample in an
// Earth-fixed Cartesian frame. Positions are metres, velocities m/s.
type OrbitStateVector struct {
	Time     time.Time  `json:"time"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

// GeolocationGridPoint ties a (line, pixel) image coordinate to timing and
// viewing geometry. The annotation publishes these on a coarse regular grid.
type GeolocationGridPoint struct {
	AzimuthTime    time.Time `json:"azimuth_time"`
	SlantRangeTime float64   `json:"slant_range_time"`
	Line           int       `json:"line"`
	Pixel          int       `json:"pixel"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Height         float64   `json:"height"`
	IncidenceAngle float64   `json:"incidence_angle"`
	ElevationAngle float64   `json:"elevation_angle"`
}

// CalibrationVector is one sparse calibration record: radiometric LUT values
// at irregular pixel positions along a single image line.
type CalibrationVector struct {
	AzimuthTime time.Time `json:"azimuth_time"`
	Line        int       `json:"line"`
	Pixel       []int     `json:"pixel"`
	SigmaNought []float64 `json:"sigma_nought"`
	BetaNought  []float64 `json:"beta_nought"`
	Gamma       []float64 `json:"gamma"`
	DN          []float64 `json:"dn"`
}

// NoiseRangeVector is one sparse range-noise record along a single line.
type NoiseRangeVector struct {
	AzimuthTime time.Time `json:"azimuth_time"`
	Line        int       `json:"line"`
	Pixel       []int     `json:"pixel"`
	NoiseLUT    []float64 `json:"noise_lut"`
}

// AzimuthFmRateRecord is one annotated azimuth frequency-modulation rate
// polynomial, evaluated in slant-range time around T0.
type AzimuthFmRateRecord struct {
	AzimuthTime time.Time  `json:"azimuth_time"`
	T0          float64    `json:"t0"`
	Polynomial  [3]float64 `json:"polynomial"`
}

// Annotation bundles every plain numeric table the denoising pipeline
// consumes for one polarization channel. It is produced by an external
// annotation accessor (document parsing is out of scope here) and treated as
// read-only by the pipeline.
type Annotation struct {
	// Platform is the mission/platform identifier, e.g. "S1A" or "S1B".
	Platform string `json:"platform"`
	// Mode is the acquisition mode, e.g. "IW" or "EW". It determines the
	// number of subswaths and a handful of mode-dependent constants.
	Mode string `json:"mode"`
	// Polarization of this channel, e.g. "HV".
	Polarization string `json:"polarization"`
	// IPFVersion is the processor version that generated the product.
	IPFVersion float64 `json:"ipf_version"`

	SensingStart time.Time `json:"sensing_start"`
	SensingEnd   time.Time `json:"sensing_end"`

	Shape ImageShape `json:"shape"`

	// ReferenceRange is the slant range (metres) at which range spreading
	// loss is normalized to one.
	ReferenceRange float64 `json:"reference_range"`
	// AzimuthFrequency is the azimuth sampling frequency (Hz) of the
	// underlying single-look product, used to derive burst lengths.
	AzimuthFrequency float64 `json:"azimuth_frequency"`

	Orbit            []OrbitStateVector     `json:"orbit"`
	GeolocationGrid  []GeolocationGridPoint `json:"geolocation_grid"`
	Calibration      []CalibrationVector    `json:"calibration"`
	NoiseRange       []NoiseRangeVector     `json:"noise_range"`
	AzimuthFmRate    []AzimuthFmRateRecord  `json:"azimuth_fm_rate"`

	Subswaths []Subswath `json:"subswaths"`
}

// MidTime returns the mid point of the sensing period. All relative azimuth
// times inside the pipeline are seconds from this instant.
func (a *Annotation) MidTime() time.Time {
	return a.SensingStart.Add(a.SensingEnd.Sub(a.SensingStart) / 2)
}

// RelSeconds converts an absolute annotation timestamp to pipeline-relative
// seconds.
func (a *Annotation) RelSeconds(t time.Time) float64 {
	return t.Sub(a.MidTime()).Seconds()
}
