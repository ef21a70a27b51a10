package pfuclt

import "testing"

func baseConfig() Config {
	return Config{
		P: 100, R: 3, T: 1, L: 5,
		Playing: []bool{true, true, true},
		MainID:  0,
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	c := baseConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if c.LandmarkK1 != DefaultLandmarkK1 {
		t.Fatalf("LandmarkK1 not defaulted")
	}
	if len(c.Alpha) != c.R {
		t.Fatalf("Alpha not defaulted to length R")
	}
	if len(c.HeuristicsThresh) != c.R || len(c.HeuristicsThresh[0]) != c.L {
		t.Fatalf("HeuristicsThresh not defaulted to R x L")
	}
	for r := range c.HeuristicsThresh {
		for _, v := range c.HeuristicsThresh[r] {
			if v != DefaultHeuristicThresh {
				t.Fatalf("HeuristicsThresh[%d] not defaulted", r)
			}
		}
	}
}

func TestValidateRejectsMainIDNotPlaying(t *testing.T) {
	c := baseConfig()
	c.Playing[0] = false
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when MainID is not playing")
	}
}

func TestValidateRejectsMismatchedPlayingLength(t *testing.T) {
	c := baseConfig()
	c.Playing = []bool{true, true}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error on Playing length mismatch")
	}
}

func TestValidateRejectsBadCustomInitLength(t *testing.T) {
	c := baseConfig()
	c.CustomInit = []float64{0, 1, 2}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error on malformed CustomInit length")
	}
}

func TestConfigD(t *testing.T) {
	c := baseConfig()
	if got, want := c.D(), 3*3+3*1+1; got != want {
		t.Fatalf("D() = %d, want %d", got, want)
	}
}

func TestNumPlaying(t *testing.T) {
	c := baseConfig()
	c.Playing = []bool{true, false, true}
	if got := c.NumPlaying(); got != 2 {
		t.Fatalf("NumPlaying() = %d, want 2", got)
	}
}
