package model

// ExtraScalingCurve maps local signal-plus-noise-to-noise ratio (dB) to a
// multiplicative noise correction. Fitted offline; monotone in practice.
type ExtraScalingCurve struct {
	SNR  []float64 `json:"snr"`
	Gain []float64 `json:"gain"`
}

// Identity reports whether the curve is empty or flat at one, i.e. applying
// it changes nothing.
func (c ExtraScalingCurve) Identity() bool {
	if len(c.SNR) == 0 {
		return true
	}
	for _, g := range c.Gain {
		if g != 1 {
			return false
		}
	}
	return true
}

// SubswathCoefficients are the fitted denoising constants for one subswath.
// They are computed offline from reference scenes and never mutated during a
// denoising run.
type SubswathCoefficients struct {
	// ScalingFactor multiplies the reconstructed noise-equivalent power.
	ScalingFactor float64 `json:"scaling_factor"`
	// BalancingOffset is added after scaling to remove interswath power
	// discontinuities.
	BalancingOffset float64 `json:"balancing_offset"`
	// ExtraScaling is the SNR-indexed residual correction curve used by the
	// adaptive local noise scaler.
	ExtraScaling ExtraScalingCurve `json:"extra_scaling"`
}

// IdentityCoefficients is the defined fallback when no version-specific
// coefficient entry exists: scale one, offset zero, identity curve.
func IdentityCoefficients() SubswathCoefficients {
	return SubswathCoefficients{ScalingFactor: 1, BalancingOffset: 0}
}

// CoefficientSet holds the per-subswath coefficients for one (platform,
// processor version) pair, keyed by subswath name.
type CoefficientSet struct {
	Platform   string                          `json:"platform"`
	IPFVersion float64                         `json:"ipf_version"`
	Subswaths  map[string]SubswathCoefficients `json:"subswaths"`
}
