// Package qr renders check-in codes as scannable QR images.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Size is the edge length of generated images in pixels.
const Size = 256

const dataURLPrefix = "data:image/png;base64,"

// PNG encodes content as a PNG QR image.
func PNG(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL encodes content as a PNG QR image wrapped in a data URL suitable
// for an <img src>.
func DataURL(content string) (string, error) {
	png, err := PNG(content)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURL returns the PNG bytes held in a data URL produced by DataURL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	payload, ok := strings.CutPrefix(dataURL, dataURLPrefix)
	if !ok {
		return nil, errors.New("not a png data url")
	}
	png, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode qr data url: %w", err)
	}
	return png, nil
}
