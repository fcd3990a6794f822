package models

import (
	"encoding/base64"
	"strings"
)

const DefaultImageMIMEType = "image/jpeg"

// ImagePayload is an inline image: base64 data plus the MIME type recovered from an optional data-URL header.
type ImagePayload struct {
	MIMEType string
	Data     string
}

// ParseImagePayload splits "data:<mime>;base64,<data>" into its parts.
// Input without a header is returned unchanged with the default MIME type.
func ParseImagePayload(raw string) ImagePayload {
	img := ImagePayload{MIMEType: DefaultImageMIMEType, Data: raw}

	header, data, found := strings.Cut(raw, ",")
	if !found {
		return img
	}
	img.Data = data

	// header looks like "data:image/png;base64"
	if _, rest, ok := strings.Cut(header, ":"); ok {
		if mime, _, ok := strings.Cut(rest, ";"); ok && mime != "" {
			img.MIMEType = mime
		}
	}
	return img
}

var imageEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Bytes decodes the base64 data. Padded, unpadded and URL-safe alphabets are accepted.
func (p ImagePayload) Bytes() ([]byte, error) {
	data := strings.TrimSpace(p.Data)
	var firstErr error
	for _, enc := range imageEncodings {
		b, err := enc.DecodeString(data)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

type AnalyzeImageRequest struct {
	Base64Image string `json:"base64Image"`
	Prompt      string `json:"prompt"`
}

type AnalyzeImageResponse struct {
	Text string `json:"text"`
}

type FoodScanRequest struct {
	Base64Image string `json:"base64Image"`
}
