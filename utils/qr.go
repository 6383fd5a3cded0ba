package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCodeForLink renders a shareable link as a PNG QR code of the given pixel
// size, for display next to the link itself.
func QRCodeForLink(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("link cannot be empty")
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
