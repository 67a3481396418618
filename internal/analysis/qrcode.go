package analysis

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// HasQRCode reports whether the image contains a decodable QR symbol.
// Any detector failure is treated as "no QR code".
func HasQRCode(img image.Image) bool {
	if !hasPixels(img) {
		return false
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return false
	}

	reader := qrcode.NewQRCodeReader()
	hints := map[gozxing.DecodeHintType]any{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	if _, err := reader.Decode(bmp, hints); err != nil {
		return false
	}
	return true
}
