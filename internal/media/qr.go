package media

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 512
	MinQRSize     = 128
	MaxQRSize     = 2048
)

// QRCode renders content as a PNG QR code of size x size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	switch {
	case size == 0:
		size = DefaultQRSize
	case size < MinQRSize:
		size = MinQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
