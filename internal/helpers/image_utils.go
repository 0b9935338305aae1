package helpers

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"tadoba-control-go/internal/models"
)

// HighQuality is the JPEG quality used when none is configured
const HighQuality = 95

var (
	personColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	otherColor  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	labelInk    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// isJPEGData checks if the byte slice contains JPEG data by checking magic bytes
func isJPEGData(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// JPEG magic bytes: FF D8
	return data[0] == 0xFF && data[1] == 0xD8
}

// BoxColor returns red for people and green for everything else
func BoxColor(class string) color.RGBA {
	if class == "person" {
		return personColor
	}
	return otherColor
}

// BoxLabel renders "class NN.NN%"
func BoxLabel(class string, confidence float64) string {
	return fmt.Sprintf("%s %.2f%%", class, confidence*100)
}

// AnnotateJPEG decodes an encoded frame, draws every detection box with its
// label and re-encodes the result as JPEG.
func AnnotateJPEG(frame []byte, detections []models.Detection, quality int) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty frame data")
	}

	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to decode frame: empty image")
	}

	for _, d := range detections {
		drawDetection(&mat, d)
	}
	if zone, ok := BreachZone(detections); ok {
		drawBreach(&mat, zone)
	}

	if quality <= 0 {
		quality = HighQuality
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot as JPEG: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	if !isJPEGData(out) {
		return nil, fmt.Errorf("encoder produced non-JPEG output")
	}
	return out, nil
}

func drawDetection(mat *gocv.Mat, d models.Detection) {
	x1, y1 := int(d.BBox.X1), int(d.BBox.Y1)
	x2, y2 := int(d.BBox.X2), int(d.BBox.Y2)
	boxColor := BoxColor(d.Class)

	gocv.Rectangle(mat, image.Rect(x1, y1, x2, y2), boxColor, 2)

	label := BoxLabel(d.Class, d.Confidence)
	textSize := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.6, 2)
	textY := y1 - 10
	if textY < textSize.Y {
		textY = y1 + textSize.Y + 10
	}
	bgRect := image.Rect(x1, textY-textSize.Y-4, x1+textSize.X, textY+4)
	gocv.Rectangle(mat, bgRect, boxColor, -1)
	gocv.PutText(mat, label, image.Pt(x1, textY), gocv.FontHersheySimplex, 0.6, labelInk, 2)
}
