package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
)

// RadarFrequency is the C-band carrier frequency in Hz.
const RadarFrequency = 5.405000454334350e9

const radarWavelength = SpeedOfLight / RadarFrequency

// nominalLinesPerBurst deliberately undershoots the real burst length so
// that the divisor search below always lands on the true burst count.
var nominalLinesPerBurst = map[string]int{"IW": 1450, "EW": 1100}

// azimuthFmRateAt evaluates the annotated azimuth FM rate polynomials at
// the given slant-range time and linearly interpolates the results over the
// record azimuth times.
func (s *Scene) azimuthFmRateAt(relTime, slantRangeTime float64) (float64, error) {
	recs := s.Ann.AzimuthFmRate
	if len(recs) == 0 {
		return 0, fmt.Errorf("%w: no azimuth FM rate records", ErrNoValidSamples)
	}
	xp := make([]float64, len(recs))
	fp := make([]float64, len(recs))
	for i, rec := range recs {
		dt := slantRangeTime - rec.T0
		xp[i] = s.Ann.RelSeconds(rec.AzimuthTime)
		fp[i] = rec.Polynomial[0] + rec.Polynomial[1]*dt + rec.Polynomial[2]*dt*dt
	}
	if len(recs) == 1 {
		return fp[0], nil
	}
	ip, err := NewLinear1D(xp, fp)
	if err != nil {
		return 0, err
	}
	return ip.At(relTime), nil
}

// focusedBurstLength returns the focused burst length of one subswath in
// zero-Doppler time. The burst count is the largest divisor of the raw line
// count that does not push the burst length under the nominal minimum.
func (s *Scene) focusedBurstLength(sw int) (float64, error) {
	nominal, ok := nominalLinesPerBurst[s.Ann.Mode]
	if !ok {
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidDimension, s.Ann.Mode)
	}
	inputLines := s.Ann.Subswaths[sw].InputLines
	if inputLines <= 0 || s.Ann.AzimuthFrequency <= 0 {
		return 0, fmt.Errorf("%w: subswath %s input lines %d, azimuth frequency %g",
			ErrInvalidDimension, s.Ann.Subswaths[sw].Name, inputLines, s.Ann.AzimuthFrequency)
	}
	bursts := 1
	for n := 2; n <= inputLines/nominal; n++ {
		if inputLines%n == 0 {
			bursts = n
		}
	}
	return float64(inputLines) / float64(bursts) / s.Ann.AzimuthFrequency, nil
}

// subswathCenterSample returns the line-count-weighted mid range sample of
// the subswath's boundary segments.
func (s *Scene) subswathCenterSample(sw int) int {
	var weighted, lines float64
	for _, seg := range s.Ann.Subswaths[sw].Segments {
		n := float64(seg.LastAzimuthLine - seg.FirstAzimuthLine + 1)
		weighted += float64(seg.FirstRangeSample+seg.LastRangeSample) / 2 * n
		lines += n
	}
	if lines == 0 {
		return 0
	}
	return int(math.Round(weighted / lines))
}

// burstStartTimes derives the zero-Doppler start time of each TOPS burst
// from the antenna pattern record times, shifted by half the burst overlap,
// and extends the sequence until it covers [tFirst, tLast].
func (s *Scene) burstStartTimes(sw int, fullBurstLength, tFirst, tLast float64) ([]float64, error) {
	recs := s.Ann.Subswaths[sw].AntennaPattern
	if len(recs) < 2 {
		return nil, fmt.Errorf("%w: subswath %s has %d antenna pattern records",
			ErrNoValidSamples, s.Ann.Subswaths[sw].Name, len(recs))
	}
	starts := make([]float64, len(recs))
	for i, rec := range recs {
		starts[i] = s.Ann.RelSeconds(rec.AzimuthTime)
	}
	overlaps := make([]float64, len(starts))
	for i := 1; i < len(starts); i++ {
		overlaps[i] = fullBurstLength - (starts[i] - starts[i-1])
	}
	overlaps[0] = overlaps[1]
	for i := range starts {
		starts[i] += overlaps[i] / 2
	}
	// The records may not span the whole image.
	first := starts[1] - starts[0]
	for starts[0] > tFirst {
		starts = append([]float64{starts[0] - first}, starts...)
	}
	last := starts[len(starts)-1] - starts[len(starts)-2]
	for starts[len(starts)-1] < tLast {
		starts = append(starts, starts[len(starts)-1]+last)
	}
	return starts, nil
}

// ScallopingGainMap computes the per-pixel azimuth scalloping gain. The
// gain is constant along range within a subswath: each image line maps to a
// burst-relative time, the time to an antenna steering angle through the
// combined Doppler rate, and the angle to a gain through the azimuth
// element pattern.
func (s *Scene) ScallopingGainMap() (*Raster, error) {
	g, err := s.Geo()
	if err != nil {
		return nil, err
	}
	orbit, err := s.Orbit()
	if err != nil {
		return nil, err
	}
	swathIndex := s.SubswathIndexMap()
	out := NewNaNRaster(s.Ann.Shape.Lines, s.Ann.Shape.Pixels)

	for i := range s.Ann.Subswaths {
		sw := &s.Ann.Subswaths[i]
		aaep, err := azimuthGainInterp(sw.AzimuthPattern)
		if err != nil {
			return nil, fmt.Errorf("subswath %s: %w", sw.Name, err)
		}
		fullBurstLength, err := s.focusedBurstLength(i)
		if err != nil {
			return nil, err
		}
		center := float64(s.subswathCenterSample(i))

		azTime := make([]float64, out.Lines)
		gain := make([]float64, out.Lines)
		for line := range azTime {
			azTime[line] = g.azimuthTime.At(float64(line), center)
		}
		starts, err := s.burstStartTimes(i, fullBurstLength, azTime[0], azTime[out.Lines-1])
		if err != nil {
			return nil, err
		}

		steeringRate := sw.SteeringRate * math.Pi / 180
		for line := range gain {
			t := azTime[line]
			srt := g.slantRangeTime.At(float64(line), center)
			motionRate, err := s.azimuthFmRateAt(t, srt)
			if err != nil {
				return nil, err
			}
			velocity := orbit.SpeedAt(t)
			steerRate := 2 * velocity / radarWavelength * steeringRate
			netRate := motionRate * steerRate / (motionRate - steerRate)

			burstTime := t - burstCenter(starts, t)
			steeringAngle := radarWavelength / (2 * velocity) * netRate * burstTime * 180 / math.Pi
			gain[line] = 1 / math.Pow(10, aaep.At(steeringAngle)/10)
		}

		firstLine, lastLine := sw.LineRange()
		fillSubswathRows(out, swathIndex, i+1, firstLine, lastLine, func(line, pixel int) float64 {
			return gain[line]
		})
		s.log.Debug("scalloping gain computed",
			logging.String("subswath", sw.Name),
			logging.Float("burst_length_s", fullBurstLength),
			logging.Int("bursts", len(starts)-1))
	}
	return out, nil
}

// burstCenter returns the midpoint of the burst interval containing t. Times
// past the last start fall into the final interval.
func burstCenter(starts []float64, t float64) float64 {
	for i := 0; i < len(starts)-1; i++ {
		if t >= starts[i] && t < starts[i+1] {
			return (starts[i] + starts[i+1]) / 2
		}
	}
	if t < starts[0] {
		return (starts[0] + starts[1]) / 2
	}
	n := len(starts)
	return (starts[n-2] + starts[n-1]) / 2
}
