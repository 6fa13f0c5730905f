package llm

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Image references picture content sent alongside a prompt. URL is either a
// base64 data URI or an http(s) URL the upstream can fetch.
type Image struct {
	URL string
}

// IsDataURI reports whether the image carries its bytes inline.
func (i Image) IsDataURI() bool {
	return strings.HasPrefix(i.URL, "data:")
}

// ImageFromBytes sniffs the content type of data and wraps it in a data URI.
func ImageFromBytes(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("image is empty")
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, fmt.Errorf("content type %q is not an image", mime)
	}

	return Image{URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)}, nil
}

// ImageFromFile reads path and converts it with ImageFromBytes.
func ImageFromFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}

	img, err := ImageFromBytes(data)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// ParseImage validates an image reference received from a client.
func ParseImage(s string) (Image, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "data:") {
		header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
		if !ok || !strings.HasPrefix(header, "image/") || !strings.HasSuffix(header, ";base64") {
			return Image{}, fmt.Errorf("image data URI must be data:image/<type>;base64,<payload>")
		}
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return Image{}, fmt.Errorf("decoding image payload: %w", err)
		}
		return Image{URL: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Image{}, fmt.Errorf("image must be a data URI or an http(s) URL")
	}

	return Image{URL: s}, nil
}
