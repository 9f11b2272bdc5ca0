package input

import "honnef.co/go/curve"

func curvePt(x, y float64) curve.Point { return curve.Pt(x, y) }
