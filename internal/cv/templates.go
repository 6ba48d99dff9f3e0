package cv

import "image"

// Template is a named reference image. Area, when set, is the part of the
// observation the template is looked for in; its max corner is exclusive.
type Template struct {
	Name      string
	Path      string
	Threshold float64
	Area      *image.Rectangle
}

func (t Template) InRegion(x1, y1, x2, y2 int) Template {
	area := image.Rect(x1, y1, x2, y2)
	t.Area = &area
	return t
}

// MatchConfig falls back to DefaultThreshold when the template has none.
func (t Template) MatchConfig() *MatchConfig {
	mc := DefaultMatchConfig()
	if t.Threshold > 0 {
		mc.Threshold = t.Threshold
	}
	if t.Area != nil {
		area := *t.Area
		mc.SearchRegion = &area
	}
	return mc
}
