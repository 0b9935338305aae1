package helpers

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"tadoba-control-go/internal/models"
)

var (
	breachColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	bannerBg    = color.RGBA{R: 0, G: 0, B: 0, A: 200}
	bannerEdge  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// BreachZone returns the first core zone any detection falls in
func BreachZone(detections []models.Detection) (string, bool) {
	for _, d := range detections {
		if d.Zone != nil && d.Zone.Category == models.ZoneCategoryCore {
			return d.Zone.Name, true
		}
	}
	return "", false
}

// drawBreach frames the image in red and writes the zone name in a banner
func drawBreach(mat *gocv.Mat, zoneName string) {
	gocv.Rectangle(mat, image.Rect(0, 0, mat.Cols(), mat.Rows()), breachColor, 5)
	drawBanner(mat, "INTRUSION: "+zoneName, 15, 30, breachColor)
}

func drawBanner(mat *gocv.Mat, text string, x, y int, ink color.RGBA) {
	const (
		fontScale = 0.7
		thickness = 2
		padding   = 8
	)
	textSize := gocv.GetTextSize(text, gocv.FontHersheySimplex, fontScale, thickness)

	bg := image.Rect(x-padding, y-textSize.Y-padding, x+textSize.X+padding, y+padding)
	gocv.Rectangle(mat, bg, bannerBg, -1)
	gocv.Rectangle(mat, bg, bannerEdge, 1)
	gocv.PutText(mat, text, image.Pt(x, y), gocv.FontHersheySimplex, fontScale, ink, thickness)
}
