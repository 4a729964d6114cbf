package media

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml"}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("mime type missing")
	}
	return strings.ToLower(mediaType), nil
}

// resolveMimeType prefers the declared type and falls back to sniffing the
// first bytes of the upload when the client sent none or a generic one.
func resolveMimeType(declared string, head []byte) (string, error) {
	if strings.TrimSpace(declared) != "" {
		mediaType, err := sniffMimeType(declared)
		if err != nil {
			return "", err
		}
		if mediaType != "application/octet-stream" {
			return mediaType, nil
		}
	}
	return sniffMimeType(http.DetectContentType(head))
}

func isAllowedImage(mediaType string) bool {
	for _, candidate := range allowedImageTypes {
		if strings.EqualFold(candidate, mediaType) {
			return true
		}
	}
	return false
}

func allowedMimeDescription() string {
	return strings.Join(allowedImageTypes, ", ")
}
