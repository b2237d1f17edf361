package graphicsstate

import "github.com/tsawler/pdfstrip/core"

// Class groups content stream operators by their effect.
type Class int

const (
	ClassOther Class = iota
	ClassSave        // q
	ClassRestore     // Q
	ClassState       // cm, gs, w, J, j, M, d, ri, i
	ClassColor       // g, G, rg, RG, k, K, cs, CS, sc, SC, scn, SCN
	ClassPath        // m, l, c, v, y, h, re, W, W*
	ClassPaint       // path painting, sh, text showing, Do, BI
)

var classes = map[string]Class{
	"q": ClassSave,
	"Q": ClassRestore,

	"cm": ClassState, "gs": ClassState, "w": ClassState, "J": ClassState, "j": ClassState,
	"M": ClassState, "d": ClassState, "ri": ClassState, "i": ClassState,

	"g": ClassColor, "G": ClassColor, "rg": ClassColor, "RG": ClassColor, "k": ClassColor,
	"K": ClassColor, "cs": ClassColor, "CS": ClassColor, "sc": ClassColor, "SC": ClassColor,
	"scn": ClassColor, "SCN": ClassColor,

	"m": ClassPath, "l": ClassPath, "c": ClassPath, "v": ClassPath, "y": ClassPath,
	"h": ClassPath, "re": ClassPath, "W": ClassPath, "W*": ClassPath,

	"S": ClassPaint, "s": ClassPaint, "f": ClassPaint, "F": ClassPaint, "f*": ClassPaint,
	"B": ClassPaint, "B*": ClassPaint, "b": ClassPaint, "b*": ClassPaint, "n": ClassPaint,
	"sh": ClassPaint, "Do": ClassPaint, "BI": ClassPaint,
	"Tj": ClassPaint, "TJ": ClassPaint, "'": ClassPaint, "\"": ClassPaint,
}

// Classify returns the class of operator op.
func Classify(op string) Class {
	return classes[op]
}

// nonstroking lists the operators that set the fill color.
var nonstroking = map[string]bool{"g": true, "rg": true, "k": true, "sc": true, "scn": true}

// IsFillColor reports whether op sets the nonstroking color.
func IsFillColor(op string) bool { return nonstroking[op] }

// IsBlackFill reports whether op with operands sets the fill color to
// black: 0 g, 0 0 0 rg, 0 0 0 1 k, or sc/scn with three zero components.
func IsBlackFill(op string, operands []core.Object) bool {
	switch op {
	case "g":
		return components(operands, 0)
	case "rg":
		return components(operands, 0, 0, 0)
	case "k":
		return components(operands, 0, 0, 0, 1)
	case "sc", "scn":
		return components(operands, 0, 0, 0)
	}
	return false
}

// WhiteFill returns the white equivalent of a black fill operator as
// content stream text.
func WhiteFill(op string) string {
	switch op {
	case "g":
		return "1 g"
	case "rg":
		return "1 1 1 rg"
	case "k":
		return "0 0 0 0 k"
	case "sc", "scn":
		return "1 1 1 " + op
	}
	return ""
}

func components(operands []core.Object, want ...float64) bool {
	if len(operands) != len(want) {
		return false
	}
	for i, w := range want {
		v, ok := core.Number(operands[i])
		if !ok || v != w {
			return false
		}
	}
	return true
}
