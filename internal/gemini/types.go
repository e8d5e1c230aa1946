package gemini

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// ImageInput is an inline image as sent to the API: base64 payload (a full
// data URL is accepted too) plus its MIME type.
type ImageInput struct {
	DataBase64 string
	MimeType   string
}

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+);base64,`)

// ParseDataURL splits a base64 data URL into an ImageInput. Strings without
// a data URL header are rejected.
func ParseDataURL(dataURL string) (ImageInput, bool) {
	dataURL = strings.TrimSpace(dataURL)
	matches := dataURLRegex.FindStringSubmatch(dataURL)
	if len(matches) != 2 {
		return ImageInput{}, false
	}

	data := stripDataURLPrefix(dataURL)
	if data == "" {
		return ImageInput{}, false
	}
	return ImageInput{DataBase64: data, MimeType: matches[1]}, true
}

func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func stripDataURLPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}
