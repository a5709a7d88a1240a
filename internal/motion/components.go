package motion

// connectedComponents labels 4-connected true regions of mask (a
// width*height row-major boolean grid) and returns one bounding box per
// component whose pixel count is at least minArea. This stands in for
// cv2.findContours + cv2.boundingRect, which this module's dependency set
// has no binding for.
func connectedComponents(mask []bool, width, height int, minArea float64) []BoundingBox {
	visited := make([]bool, len(mask))
	var boxes []BoundingBox

	stack := make([]int, 0, 256)
	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		stack = stack[:0]
		stack = append(stack, start)
		visited[start] = true

		minX, minY := width, height
		maxX, maxY := -1, -1
		count := 0

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := p%width, p/width
			count++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			neighbors := [4]int{p - 1, p + 1, p - width, p + width}
			for i, n := range neighbors {
				if n < 0 || n >= len(mask) || visited[n] || !mask[n] {
					continue
				}
				// avoid wrapping across row edges for the horizontal neighbors
				if i == 0 && x == 0 {
					continue
				}
				if i == 1 && x == width-1 {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}

		if float64(count) < minArea {
			continue
		}

		boxes = append(boxes, BoundingBox{
			X:      minX,
			Y:      minY,
			Width:  maxX - minX + 1,
			Height: maxY - minY + 1,
		})
	}

	return boxes
}
