package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// DetectFormat inspects the raw bytes and returns the image format:
// "jpeg", "png", "gif", "webp", or "" if unknown.
func DetectFormat(data []byte) string {
	// JPEG: starts with FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg"
	}
	// PNG: starts with 89 50 4E 47 0D 0A 1A 0A
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
		data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A {
		return "png"
	}
	// GIF: starts with GIF87a or GIF89a
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
		return "gif"
	}
	// WebP: starts with RIFF....WEBP
	if len(data) >= 12 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return "webp"
	}
	return ""
}

// MIME maps a detected format to its content type. Unknown formats map to
// application/octet-stream.
func MIME(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// DataURI encodes data as a base64 data URI. When declaredType is empty the
// content type is sniffed from the bytes.
func DataURI(data []byte, declaredType string) string {
	ct := declaredType
	if ct == "" {
		ct = MIME(DetectFormat(data))
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Preview decodes data, downscales it to fit within maxDim x maxDim, and
// returns the thumbnail as a data URI. PNG input stays PNG (keeps alpha);
// everything else is re-encoded as JPEG.
func Preview(data []byte, maxDim int) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if DetectFormat(data) == "png" {
		if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
			return "", fmt.Errorf("encode preview: %w", err)
		}
		return DataURI(buf.Bytes(), "image/png"), nil
	}

	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return DataURI(buf.Bytes(), "image/jpeg"), nil
}
