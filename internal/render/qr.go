package render

import (
	"strings"

	"certgen/internal/models"

	"github.com/skip2/go-qrcode"
)

const qrPixels = 256

// VerifyURL is the link encoded in a recipient's QR code.
func VerifyURL(base string, row models.Recipient) string {
	return strings.TrimRight(base, "/") + "#" + row.FileName()
}

// QRCode encodes the recipient's verification link as a PNG.
func QRCode(base string, row models.Recipient) ([]byte, error) {
	return qrCodePNG(VerifyURL(base, row))
}

func qrCodePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, qrPixels)
}
