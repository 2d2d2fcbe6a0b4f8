package imaging

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// DetectMIME sniffs the MIME type from image content. Anything the
// sniffer cannot place defaults to JPEG, which the API accepts for the
// overwhelming majority of real-world photo files.
func DetectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// DataURL reads an image file and encodes it as a base64 data URL for
// an image_url message part
func DataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return DataURLFromBytes(data, DetectMIME(data)), nil
}

// DataURLFromBytes encodes already-loaded image bytes as a data URL
func DataURLFromBytes(data []byte, mime string) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
