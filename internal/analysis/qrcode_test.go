package analysis

import (
	"image"
	"image/color"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

func TestHasQRCodePositive(t *testing.T) {
	writer := qrcode.NewQRCodeWriter()
	matrix, err := writer.Encode("https://example.com", gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	if err != nil {
		t.Fatalf("could not render test QR code: %v", err)
	}

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	if !HasQRCode(img) {
		t.Error("HasQRCode() = false for a rendered QR code")
	}
}

func TestHasQRCodeNegative(t *testing.T) {
	if HasQRCode(flatImage(200, 200, 255)) {
		t.Error("HasQRCode() = true for a blank image")
	}
	if HasQRCode(checkerboard(200, 200)) {
		t.Error("HasQRCode() = true for a checkerboard")
	}
	if HasQRCode(gradientImage(200, 200, 1.0)) {
		t.Error("HasQRCode() = true for a gradient")
	}
}
