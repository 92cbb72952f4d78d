package capture

import "strings"

// DefaultFormats is the container/codec preference list, best first.
var DefaultFormats = []string{
	"video/webm;codecs=vp9,opus",
	"video/webm;codecs=vp8,opus",
	"video/webm",
	"video/mp4",
}

// Negotiate returns the first format in prefs the device supports.
func Negotiate(device Device, prefs []string) (string, error) {
	for _, mimeType := range prefs {
		if device.Supports(mimeType) {
			return mimeType, nil
		}
	}
	return "", ErrNoSupportedFormat
}

// Extension returns the file extension for a negotiated mime type.
func Extension(mimeType string) string {
	switch baseType(mimeType) {
	case "video/webm":
		return ".webm"
	case "video/mp4":
		return ".mp4"
	}
	return ""
}

func baseType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// codecs returns the codecs parameter of mimeType, lower-cased.
func codecs(mimeType string) []string {
	_, params, ok := strings.Cut(mimeType, ";")
	if !ok {
		return nil
	}
	_, list, ok := strings.Cut(strings.ToLower(params), "codecs=")
	if !ok {
		return nil
	}
	list = strings.Trim(strings.TrimSpace(list), `"`)

	var out []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
