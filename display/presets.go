package display

// Preset cursor bitmaps for the "remote cursor disabled" case, where
// occamy must render a local pointer itself instead of relying on the
// server's own cursor shape. Adapted from the 11x16 arrow bitmap embedded
// in original_source's common/pointer_cursor.c; the dot bitmap has no
// retrieved source and was authored fresh as a small filled circle for the
// equivalent "reduced" cursor case.

const (
	pointerWidth  = 11
	pointerHeight = 16
	dotDiameter   = 7
)

// PointerCursor renders the classic arrow pointer as RGBA (w*h*4 bytes),
// black fill with a white one-pixel outline, transparent elsewhere.
func PointerCursor() (rgba []byte, w, h int) {
	// row-by-row shape mask: '#' outline, 'o' body, '.' transparent.
	rows := []string{
		"#..........",
		"##.........",
		"#o#........",
		"#oo#.......",
		"#ooo#......",
		"#oooo#.....",
		"#ooooo#....",
		"#oooooo#...",
		"#ooooooo#..",
		"#oooooooo#.",
		"#ooooo#####",
		"#oo#oo#....",
		"#o#.#oo#...",
		"##..#oo#...",
		"#....#oo#..",
		".....##.#..",
	}
	return renderMask(rows, pointerWidth, pointerHeight)
}

// DotCursor renders a small filled circle, used for the "reduced" remote
// cursor fallback.
func DotCursor() (rgba []byte, w, h int) {
	w, h = dotDiameter, dotDiameter
	rgba = make([]byte, w*h*4)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	r := float64(w) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			o := (y*w + x) * 4
			if dx*dx+dy*dy <= r*r {
				rgba[o], rgba[o+1], rgba[o+2], rgba[o+3] = 0, 0, 0, 0xFF
			}
		}
	}
	return rgba, w, h
}

func renderMask(rows []string, w, h int) ([]byte, int, int) {
	rgba := make([]byte, w*h*4)
	for y, row := range rows {
		for x := 0; x < w && x < len(row); x++ {
			o := (y*w + x) * 4
			switch row[x] {
			case '#':
				rgba[o], rgba[o+1], rgba[o+2], rgba[o+3] = 0xFF, 0xFF, 0xFF, 0xFF
			case 'o':
				rgba[o], rgba[o+1], rgba[o+2], rgba[o+3] = 0, 0, 0, 0xFF
			default:
				// transparent
			}
		}
	}
	return rgba, w, h
}
