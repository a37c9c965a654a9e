package detector

import (
	"sort"

	"object-detection/internal/vision"
)

// NMS performs per-class non-maximum suppression. Candidates below
// scoreThreshold are dropped; of any two same-class boxes overlapping by more
// than iouThreshold only the higher-confidence one is kept. The result is
// ordered by descending confidence.
func NMS(candidates []vision.Detection, scoreThreshold, iouThreshold float64) []vision.Detection {
	kept := make([]vision.Detection, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence >= scoreThreshold && c.Box.Area() > 0 {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	out := make([]vision.Detection, 0, len(kept))
	suppressed := make([]bool, len(kept))
	for i := range kept {
		if suppressed[i] {
			continue
		}
		out = append(out, kept[i])
		for j := i + 1; j < len(kept); j++ {
			if suppressed[j] || kept[j].ClassID != kept[i].ClassID {
				continue
			}
			if kept[i].Box.IoU(kept[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return out
}
