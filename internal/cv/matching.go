package cv

import (
	"image"
	"math"
	"runtime"
	"sync"
)

// DefaultThreshold is the minimum correlation counted as a detection
const DefaultThreshold = 0.95

// MatchResult contains template matching results
type MatchResult struct {
	Found      bool
	Location   image.Point
	Confidence float64
}

// MatchConfig configures template matching
type MatchConfig struct {
	Threshold    float64          // correlation in [-1, 1]
	SearchRegion *image.Rectangle // Optional: limit search area
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Threshold: DefaultThreshold,
	}
}

// FindTemplate finds needle within haystack and reports whether the best
// correlation reaches the threshold
func FindTemplate(haystack, needle *image.Gray, config *MatchConfig) *MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}

	search := haystack
	offset := image.Point{}
	if config.SearchRegion != nil {
		area := config.SearchRegion.Intersect(haystack.Bounds())
		if area.Empty() {
			return &MatchResult{Found: false}
		}
		search = haystack.SubImage(area).(*image.Gray)
		offset = area.Min.Sub(haystack.Bounds().Min)
	}

	score, loc, ok := MatchNCC(search, needle)
	if !ok {
		return &MatchResult{Found: false}
	}
	return &MatchResult{
		Found:      score >= config.Threshold,
		Location:   loc.Add(offset),
		Confidence: score,
	}
}

// MatchNCC slides tmpl over frame and returns the best mean-subtracted
// normalized correlation coefficient, in [-1, 1], and where it occurred.
// ok is false when tmpl does not fit inside frame. A window with no
// variance scores 0 against a textured template and 1 against a flat one.
func MatchNCC(frame, tmpl *image.Gray) (score float64, loc image.Point, ok bool) {
	fb, tb := frame.Bounds(), tmpl.Bounds()
	fw, fh := fb.Dx(), fb.Dy()
	tw, th := tb.Dx(), tb.Dy()
	if tw == 0 || th == 0 || tw > fw || th > fh {
		return 0, image.Point{}, false
	}

	n := float64(tw * th)

	// Zero-mean template
	t := make([]float64, tw*th)
	var tSum float64
	for y := 0; y < th; y++ {
		row := tmpl.Pix[tmpl.PixOffset(tb.Min.X, tb.Min.Y+y):]
		for x := 0; x < tw; x++ {
			v := float64(row[x])
			t[y*tw+x] = v
			tSum += v
		}
	}
	tMean := tSum / n
	var tVar float64
	for i := range t {
		t[i] -= tMean
		tVar += t[i] * t[i]
	}
	tFlat := tVar < 1e-9

	// Integral images for window sums and sums of squares
	iw := fw + 1
	sum := make([]float64, iw*(fh+1))
	sq := make([]float64, iw*(fh+1))
	for y := 0; y < fh; y++ {
		row := frame.Pix[frame.PixOffset(fb.Min.X, fb.Min.Y+y):]
		var rs, rq float64
		for x := 0; x < fw; x++ {
			v := float64(row[x])
			rs += v
			rq += v * v
			sum[(y+1)*iw+x+1] = sum[y*iw+x+1] + rs
			sq[(y+1)*iw+x+1] = sq[y*iw+x+1] + rq
		}
	}
	window := func(tab []float64, x, y int) float64 {
		return tab[(y+th)*iw+x+tw] - tab[y*iw+x+tw] - tab[(y+th)*iw+x] + tab[y*iw+x]
	}

	rows := fh - th + 1
	cols := fw - tw + 1

	type best struct {
		score float64
		loc   image.Point
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	results := make([]best, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			b := best{score: math.Inf(-1)}
			for y := w; y < rows; y += workers {
				for x := 0; x < cols; x++ {
					s := window(sum, x, y)
					wVar := window(sq, x, y) - s*s/n
					var r float64
					switch {
					case wVar < 1e-6 && tFlat:
						r = 1
					case wVar < 1e-6 || tFlat:
						r = 0
					default:
						// sum(t' * I) equals sum(t' * I') because t' has zero mean
						var cross float64
						for ty := 0; ty < th; ty++ {
							row := frame.Pix[frame.PixOffset(fb.Min.X+x, fb.Min.Y+y+ty):]
							trow := t[ty*tw : (ty+1)*tw]
							for tx, tv := range trow {
								cross += tv * float64(row[tx])
							}
						}
						r = cross / math.Sqrt(tVar*wVar)
					}
					if r > b.score {
						b = best{score: r, loc: image.Point{X: x, Y: y}}
					}
				}
			}
			results[w] = b
		}(w)
	}
	wg.Wait()

	// Lowest row-major offset wins ties
	top := results[0]
	for _, r := range results[1:] {
		if r.score > top.score || (r.score == top.score && (r.loc.Y < top.loc.Y || (r.loc.Y == top.loc.Y && r.loc.X < top.loc.X))) {
			top = r
		}
	}

	return clamp(top.score), top.loc, true
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
