package motion

import "testing"

func makeMask(width, height int, rects ...[4]int) []bool {
	mask := make([]bool, width*height)
	for _, r := range rects {
		x0, y0, x1, y1 := r[0], r[1], r[2], r[3]
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				mask[y*width+x] = true
			}
		}
	}
	return mask
}

func TestConnectedComponentsFindsSingleBox(t *testing.T) {
	mask := makeMask(20, 20, [4]int{2, 2, 10, 10})
	boxes := connectedComponents(mask, 20, 20, 1)

	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d: %+v", len(boxes), boxes)
	}
	b := boxes[0]
	if b.X != 2 || b.Y != 2 || b.Width != 8 || b.Height != 8 {
		t.Fatalf("unexpected box bounds: %+v", b)
	}
}

func TestConnectedComponentsFiltersSmallRegions(t *testing.T) {
	mask := makeMask(20, 20, [4]int{0, 0, 2, 2})
	boxes := connectedComponents(mask, 20, 20, 100)
	if len(boxes) != 0 {
		t.Fatalf("expected small region to be filtered out, got %+v", boxes)
	}
}

func TestConnectedComponentsSeparatesDisjointRegions(t *testing.T) {
	mask := makeMask(20, 20, [4]int{0, 0, 3, 3}, [4]int{15, 15, 18, 18})
	boxes := connectedComponents(mask, 20, 20, 1)
	if len(boxes) != 2 {
		t.Fatalf("expected 2 disjoint boxes, got %d: %+v", len(boxes), boxes)
	}
}

func TestConnectedComponentsRowWrapIsNotConnected(t *testing.T) {
	width, height := 5, 2
	mask := make([]bool, width*height)
	mask[width-1] = true // (4,0)
	mask[width] = true   // (0,1)

	boxes := connectedComponents(mask, width, height, 1)
	if len(boxes) != 2 {
		t.Fatalf("expected row-edge pixels to form separate components, got %d: %+v", len(boxes), boxes)
	}
}
