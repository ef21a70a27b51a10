package fusion

import "github.com/MrProteus/pfuclt-omni-dataset/obsbuf"

// Landmark indices the occlusion heuristic reasons about. Fixed by the
// dataset's physical layout (two goalposts, 6/7, occluded by two
// nearer landmarks, 8/9).
const (
	heuristicLandmarkA = 6
	heuristicLandmarkB = 7
	heuristicNearA     = 8
	heuristicNearB     = 9
)

// ApplyHeuristics returns, for each landmark index, whether it should
// be included in this cycle's fusion: found, within its per-robot
// distance threshold, and not suppressed by the 6/7/8/9 occlusion
// rule.
func ApplyHeuristics(obs []obsbuf.LandmarkObservation, thresh []float64) []bool {
	include := make([]bool, len(obs))
	for i, o := range obs {
		include[i] = o.Found
	}

	if len(obs) > heuristicNearB {
		nearAFound := obs[heuristicNearA].Found
		nearBFound := obs[heuristicNearB].Found
		switch {
		case nearAFound && !nearBFound:
			include[heuristicLandmarkB] = false
		case nearBFound && !nearAFound:
			include[heuristicLandmarkA] = false
		case nearAFound && nearBFound:
			if obs[heuristicNearB].D < obs[heuristicNearA].D {
				include[heuristicLandmarkA] = false
			} else {
				include[heuristicLandmarkB] = false
			}
		}
	}

	for i := range include {
		if !include[i] {
			continue
		}
		if i < len(thresh) && obs[i].D > thresh[i] {
			include[i] = false
		}
	}
	return include
}
