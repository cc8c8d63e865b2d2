package imaging

import (
	"image"

	"github.com/ironsheep/landing-detect/internal/geometry"
)

// ContourFinder extracts outer boundaries from a binary mask.
//
// Implementations return only the outermost contour of each connected
// foreground region (holes and anything nested inside them are ignored) and
// compress straight runs so that only their end points remain. Coordinates
// are pixel positions relative to the mask's top-left corner.
type ContourFinder interface {
	FindContours(mask *image.Gray) ([]geometry.Contour, error)
	Name() string
}

// MooreTracer is the pure-Go ContourFinder.
//
// Foreground regions are 8-connected and background 4-connected. A region is
// outermost when it touches the image border or borders background that is
// reachable from the border. Each outermost region is traced clockwise with
// Moore-neighbour tracing from its first pixel in raster order, stopping
// when the walk would repeat its first move.
type MooreTracer struct{}

// Name implements ContourFinder.
func (MooreTracer) Name() string { return "moore" }

// 8-neighbourhood in clockwise order for a y-down image: E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

const dirWest = 4

func dirIndex(dx, dy int) int {
	for i := range 8 {
		if mooreDX[i] == dx && mooreDY[i] == dy {
			return i
		}
	}
	return 0
}

// FindContours implements ContourFinder. Contours are returned in raster
// order of their first pixel.
func (MooreTracer) FindContours(mask *image.Gray) ([]geometry.Contour, error) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			fg[y*w+x] = row[x] != 0
		}
	}

	outside := outsideBackground(fg, w, h)
	labels := make([]int, w*h)
	contours := make([]geometry.Contour, 0)
	next := 0

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !fg[i] || labels[i] != 0 {
				continue
			}
			next++
			if labelComponent(fg, labels, outside, w, h, x, y, next) {
				contours = append(contours, traceBoundary(labels, w, h, next, x, y))
			}
		}
	}
	return contours, nil
}

// outsideBackground marks background pixels 4-connected to the image border.
func outsideBackground(fg []bool, w, h int) []bool {
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return outside
}

// labelComponent flood-fills the 8-connected region containing (sx, sy) with
// label and reports whether the region is outermost.
func labelComponent(fg []bool, labels []int, outside []bool, w, h, sx, sy, label int) bool {
	external := false
	stack := []int{sy*w + sx}
	labels[sy*w+sx] = label

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w

		if x == 0 || y == 0 || x == w-1 || y == h-1 {
			external = true
		}

		for d := range 8 {
			nx, ny := x+mooreDX[d], y+mooreDY[d]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if fg[j] {
				if labels[j] == 0 {
					labels[j] = label
					stack = append(stack, j)
				}
			} else if d%2 == 0 && outside[j] {
				// even directions are the 4-neighbours
				external = true
			}
		}
	}
	return external
}

// traceBoundary walks the outer boundary of the labelled region starting at
// its raster-first pixel (sx, sy), whose west neighbour is background. The
// walk stops when it is about to leave the start pixel towards the same
// neighbour as its first move, which also terminates on one-pixel-wide
// regions whose start is re-entered from a different side.
func traceBoundary(labels []int, w, h, label, sx, sy int) geometry.Contour {
	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}

	pts := []image.Point{{X: sx, Y: sy}}
	cx, cy := sx, sy
	from := dirWest
	var second image.Point
	maxSteps := 4*w*h + 8

	for step := 0; step < maxSteps; step++ {
		found := false
		var nx, ny, nfrom int
		for k := 1; k <= 8; k++ {
			i := (from + k) % 8
			tx, ty := cx+mooreDX[i], cy+mooreDY[i]
			if !isLabel(tx, ty) {
				continue
			}
			prev := (from + k - 1) % 8
			nx, ny = tx, ty
			nfrom = dirIndex(cx+mooreDX[prev]-tx, cy+mooreDY[prev]-ty)
			found = true
			break
		}
		if !found {
			// isolated pixel
			break
		}
		next := image.Point{X: nx, Y: ny}
		if step == 0 {
			second = next
		} else if cx == sx && cy == sy && next == second {
			break
		}
		cx, cy, from = nx, ny, nfrom
		pts = append(pts, next)
	}

	if n := len(pts); n >= 2 && pts[n-1] == pts[0] {
		pts = pts[:n-1]
	}
	return compressRuns(pts)
}

// compressRuns drops points in the middle of straight runs, keeping only
// those where the step direction changes. The sequence is treated as closed.
func compressRuns(pts []image.Point) geometry.Contour {
	n := len(pts)
	if n < 3 {
		out := make(geometry.Contour, n)
		for i, p := range pts {
			out[i] = geometry.FromImagePoint(p)
		}
		return out
	}

	out := make(geometry.Contour, 0, n)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]
		in := image.Point{X: sign(cur.X - prev.X), Y: sign(cur.Y - prev.Y)}
		outDir := image.Point{X: sign(next.X - cur.X), Y: sign(next.Y - cur.Y)}
		if in != outDir {
			out = append(out, geometry.FromImagePoint(cur))
		}
	}
	if len(out) == 0 {
		// a closed loop cannot keep one direction all the way round
		out = append(out, geometry.FromImagePoint(pts[0]))
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
