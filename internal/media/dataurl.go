package media

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var dataURLRe = regexp.MustCompile(`^data:(.*?);base64,(.*)$`)

var allowedImageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Image is a decoded data URL.
type Image struct {
	MIMEType  string
	Extension string
	Data      []byte
}

// IsDataURL reports whether value looks like an inline base64 payload.
func IsDataURL(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "data:")
}

// DecodeDataURL parses data:<mime>;base64,<payload>. The declared type must be an
// image and must agree with the sniffed content.
func DecodeDataURL(value string, maxBytes int) (*Image, error) {
	m := dataURLRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid base64 image string")
	}
	declared := strings.ToLower(strings.TrimSpace(m[1]))
	if !strings.Contains(declared, "image") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provided string is not an image")
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid base64 image string")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image exceeds %d bytes", maxBytes))
	}

	detected := mimetype.Detect(data)
	ext, ok := allowedImageTypes[detected.String()]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("image must be %s", humanReadableList(allowedTypeNames()))).
			WithDetails(map[string]any{"detected": detected.String(), "declared": declared})
	}

	return &Image{MIMEType: detected.String(), Extension: ext, Data: data}, nil
}

func allowedTypeNames() []string {
	names := make([]string, 0, len(allowedImageTypes))
	for mimeType := range allowedImageTypes {
		names = append(names, mimeType)
	}
	sort.Strings(names)
	return names
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
