package model

import "time"

// SwathSegment is one rectangular (line, pixel) block of a subswath. Segments
// may shift a pixel or two in range over the acquisition, so a subswath is a
// list of them rather than a single rectangle.
type SwathSegment struct {
	AzimuthTime      time.Time `json:"azimuth_time"`
	FirstAzimuthLine int       `json:"first_azimuth_line"`
	FirstRangeSample int       `json:"first_range_sample"`
	LastAzimuthLine  int       `json:"last_azimuth_line"`
	LastRangeSample  int       `json:"last_range_sample"`
}

// AntennaPatternRecord is one annotated antenna-pattern snapshot: the
// platform roll and the elevation-angle axis of the pattern at a given
// azimuth time.
type AntennaPatternRecord struct {
	AzimuthTime    time.Time `json:"azimuth_time"`
	Roll           float64   `json:"roll"`
	SlantRangeTime []float64 `json:"slant_range_time"`
	ElevationAngle []float64 `json:"elevation_angle"`
}

// ElementPatternLUT is a tabulated antenna element gain curve, symmetric
// around boresight with a constant angle step. Values may be interleaved
// (I, Q)-like pairs (elevation pattern) or plain gains in dB (azimuth
// pattern); the consumer decides how to combine them.
type ElementPatternLUT struct {
	AngleIncrement float64   `json:"angle_increment"`
	Values         []float64 `json:"values"`
}

// NoiseAzimuthBlock is one per-subswath azimuth noise LUT block. Products
// from processor versions before 2.9 do not annotate these; the accessor
// synthesizes a single all-ones block spanning the image instead.
type NoiseAzimuthBlock struct {
	FirstAzimuthLine int       `json:"first_azimuth_line"`
	FirstRangeSample int       `json:"first_range_sample"`
	LastAzimuthLine  int       `json:"last_azimuth_line"`
	LastRangeSample  int       `json:"last_range_sample"`
	Line             []int     `json:"line"`
	NoiseLUT         []float64 `json:"noise_lut"`
}

// Subswath is one range strip of a burst-mode acquisition together with all
// per-subswath annotation the pipeline needs. Subswaths live in a plain
// slice; hot loops index them by position instead of name.
type Subswath struct {
	// Name is the annotated identifier, e.g. "EW3". Used only for
	// diagnostics and coefficient lookup.
	Name string `json:"name"`

	Segments []SwathSegment `json:"segments"`

	AntennaPattern   []AntennaPatternRecord `json:"antenna_pattern"`
	ElevationPattern ElementPatternLUT      `json:"elevation_pattern"`
	AzimuthPattern   ElementPatternLUT      `json:"azimuth_pattern"`

	NoiseAzimuthBlocks []NoiseAzimuthBlock `json:"noise_azimuth_blocks"`

	// SteeringRate is the antenna azimuth steering rate in degrees per
	// second for this subswath.
	SteeringRate float64 `json:"steering_rate"`
	// NoiseCalibrationFactor rescales uncalibrated noise LUTs published by
	// early processor versions.
	NoiseCalibrationFactor float64 `json:"noise_calibration_factor"`
	// ProcessorScalingFactor is the swath processing gain applied by the
	// processor; carried for completeness.
	ProcessorScalingFactor float64 `json:"processor_scaling_factor"`
	// InputLines is the SLC input line count for this subswath, used to
	// derive the focused burst length.
	InputLines int `json:"input_lines"`
}

// LineRange returns the overall [first, last] azimuth line span covered by
// the subswath's segments.
func (s *Subswath) LineRange() (first, last int) {
	first, last = s.Segments[0].FirstAzimuthLine, s.Segments[0].LastAzimuthLine
	for _, seg := range s.Segments[1:] {
		if seg.FirstAzimuthLine < first {
			first = seg.FirstAzimuthLine
		}
		if seg.LastAzimuthLine > last {
			last = seg.LastAzimuthLine
		}
	}
	return first, last
}

// SampleRange returns the overall [first, last] range sample span covered by
// the subswath's segments.
func (s *Subswath) SampleRange() (first, last int) {
	first, last = s.Segments[0].FirstRangeSample, s.Segments[0].LastRangeSample
	for _, seg := range s.Segments[1:] {
		if seg.FirstRangeSample < first {
			first = seg.FirstRangeSample
		}
		if seg.LastRangeSample > last {
			last = seg.LastRangeSample
		}
	}
	return first, last
}
