package coeffs

import (
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/sar-denoise/model"
)

func TestEffectiveVersion(t *testing.T) {
	cutover := time.Date(2017, 1, 16, 13, 42, 34, 0, time.UTC)
	cases := []struct {
		platform string
		version  float64
		start    time.Time
		want     float64
	}{
		{"S1B", 2.72, cutover, 2.8},
		{"S1B", 2.72, cutover.Add(time.Hour), 2.8},
		{"S1B", 2.72, cutover.Add(-time.Second), 2.72},
		{"S1A", 2.72, cutover.Add(time.Hour), 2.72},
		{"S1B", 2.71, cutover.Add(time.Hour), 2.71},
		{"S1A", 3.1, cutover, 3.1},
	}
	for _, c := range cases {
		if got := EffectiveVersion(c.platform, c.version, c.start); got != c.want {
			t.Fatalf("EffectiveVersion(%s, %v, %v) = %v, want %v",
				c.platform, c.version, c.start, got, c.want)
		}
	}
}

func testSet(platform string, version float64) model.CoefficientSet {
	return model.CoefficientSet{
		Platform:   platform,
		IPFVersion: version,
		Subswaths: map[string]model.SubswathCoefficients{
			"EW1": {ScalingFactor: 1.2, BalancingOffset: 0.001},
			"EW2": {ScalingFactor: 0.9, BalancingOffset: -0.002},
		},
	}
}

func TestStoreLookup(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(testSet("S1A", 2.9))
	got := s.Coefficients("S1A", 2.9, time.Now(), []string{"EW1", "EW2"})
	if got["EW1"].ScalingFactor != 1.2 || got["EW2"].BalancingOffset != -0.002 {
		t.Fatalf("lookup returned %+v", got)
	}
}

func TestStoreMissingEntriesFallBackToIdentity(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(testSet("S1A", 2.9))

	isIdentity := func(sc model.SubswathCoefficients) bool {
		return sc.ScalingFactor == 1 && sc.BalancingOffset == 0 && sc.ExtraScaling.Identity()
	}

	// Unknown subswath within a known set.
	got := s.Coefficients("S1A", 2.9, time.Now(), []string{"EW1", "EW3"})
	if !isIdentity(got["EW3"]) {
		t.Fatalf("unknown subswath resolved to %+v, want identity", got["EW3"])
	}
	if got["EW1"].ScalingFactor != 1.2 {
		t.Fatalf("known subswath degraded alongside: %+v", got["EW1"])
	}

	// Unknown platform/version pair.
	got = s.Coefficients("S1B", 3.1, time.Now(), []string{"EW1"})
	if !isIdentity(got["EW1"]) {
		t.Fatalf("unknown set resolved to %+v, want identity", got["EW1"])
	}
}

func TestStoreAppliesVersionOverride(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(testSet("S1B", 2.8))
	start := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	got := s.Coefficients("S1B", 2.72, start, []string{"EW1"})
	if got["EW1"].ScalingFactor != 1.2 {
		t.Fatalf("override lookup returned %+v, want the 2.8 entry", got["EW1"])
	}
}

func TestStoreLoadJSON(t *testing.T) {
	in := `[
	  {
	    "platform": "S1A",
	    "ipf_version": 2.9,
	    "subswaths": {
	      "IW1": {"scaling_factor": 1.1, "balancing_offset": 0.0005,
	              "extra_scaling": {"snr": [-5, 0, 5], "gain": [1.2, 1.1, 1.0]}}
	    }
	  }
	]`
	s := NewStore(nil, nil)
	if err := s.LoadJSON(strings.NewReader(in)); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	got := s.Coefficients("S1A", 2.9, time.Now(), []string{"IW1"})
	sc := got["IW1"]
	if sc.ScalingFactor != 1.1 || sc.BalancingOffset != 0.0005 {
		t.Fatalf("loaded coefficients = %+v", sc)
	}
	if sc.ExtraScaling.Identity() {
		t.Fatal("loaded extra scaling curve reads as identity")
	}

	if err := s.LoadJSON(strings.NewReader("{")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
