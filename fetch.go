package spatialetl

// Image acquisition over HTTP.

import (
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Register the decoders for the formats served by the sample URLs.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultFetchTimeout bounds a single image download. A hanging fetch
// converts into a sample skip at the pipeline level.
const DefaultFetchTimeout = 10 * time.Second

// ImageSource retrieves and decodes the image behind a sample URL.
type ImageSource interface {
	Fetch(url string) (image.Image, error)
}

// HTTPImageSource fetches images over HTTP(S) with a bounded per-request
// timeout.
type HTTPImageSource struct {
	client *http.Client
}

// NewHTTPImageSource returns an HTTPImageSource with the given timeout.
// A non-positive timeout selects DefaultFetchTimeout.
func NewHTTPImageSource(timeout time.Duration) *HTTPImageSource {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPImageSource{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and decodes the image at imageURL.
func (s *HTTPImageSource) Fetch(imageURL string) (image.Image, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %v", imageURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	resp, err := s.client.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %q: %v", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %q: HTTP %s", imageURL, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%q is not an image (Content-Type %q)", imageURL, ct)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image from %q: %v", imageURL, err)
	}

	return img, nil
}
