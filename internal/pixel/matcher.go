// internal/pixel/matcher.go
package pixel

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// matchTemplate slides the template over the screen raster in row-major
// order and returns the center of the first region whose similarity reaches
// the threshold. First match wins; candidates are not ranked. Similarity is
// 1 minus the normalized mean absolute grayscale difference, so 1.0 is a
// pixel-perfect match.
//
// downscale shrinks both rasters by an integer factor before matching; the
// returned point is reported in original screen coordinates.
func matchTemplate(screen, template image.Image, threshold float64, downscale int) (image.Point, bool) {
	if downscale < 1 {
		downscale = 1
	}

	sg := toGray(screen, downscale)
	tg := toGray(template, downscale)

	sw, sh := sg.Bounds().Dx(), sg.Bounds().Dy()
	tw, th := tg.Bounds().Dx(), tg.Bounds().Dy()
	if tw == 0 || th == 0 || tw > sw || th > sh {
		return image.Point{}, false
	}

	for y := 0; y <= sh-th; y++ {
		for x := 0; x <= sw-tw; x++ {
			if similarityAt(sg, tg, x, y, tw, th, threshold) >= threshold {
				center := image.Point{
					X: (x + tw/2) * downscale,
					Y: (y + th/2) * downscale,
				}
				return center, true
			}
		}
	}
	return image.Point{}, false
}

// similarityAt scores one placement. The accumulated difference is bounded
// by the worst total still able to reach the threshold, so hopeless
// placements bail out early.
func similarityAt(screen, tmpl *image.Gray, ox, oy, tw, th int, threshold float64) float64 {
	total := tw * th
	maxDiff := float64(total) * 255.0 * (1.0 - threshold)

	var diff float64
	for y := 0; y < th; y++ {
		srow := screen.Pix[(oy+y)*screen.Stride+ox:]
		trow := tmpl.Pix[y*tmpl.Stride:]
		for x := 0; x < tw; x++ {
			d := int(srow[x]) - int(trow[x])
			if d < 0 {
				d = -d
			}
			diff += float64(d)
		}
		if diff > maxDiff {
			return 1.0 - diff/(float64(total)*255.0)
		}
	}
	return 1.0 - diff/(float64(total)*255.0)
}

// toGray converts to grayscale, shrinking by the integer factor on the way.
func toGray(img image.Image, downscale int) *image.Gray {
	b := img.Bounds()
	w := b.Dx() / downscale
	h := b.Dy() / downscale
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if downscale == 1 {
		xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, xdraw.Src, nil)
	}
	return gray
}
