package client

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gymmate-backend/internal/models"
)

// ImageToDataURL encodes data as a data URL. The MIME type is sniffed and falls
// back to image/jpeg when the bytes do not look like an image.
func ImageToDataURL(data []byte) string {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = models.DefaultImageMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ReadImageFile loads an image from disk as a data URL.
func ReadImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("image file is empty")
	}
	return ImageToDataURL(data), nil
}
