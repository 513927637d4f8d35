package storage

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	// Registered decoders for DetectImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
)

var imageNamePattern = regexp.MustCompile(`(?i)\.(gif|jpe?g|tiff?|png|webp|bmp)$`)

// IsImageName reports whether a file name carries an image extension.
func IsImageName(name string) bool {
	return imageNamePattern.MatchString(name)
}

// ImageInfo describes a decodable image.
type ImageInfo struct {
	Format   string
	MimeType string
	Width    int
	Height   int
}

// DetectImage decodes only the header of data.
func DetectImage(data []byte) (*ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a supported image: %w", err)
	}
	return &ImageInfo{
		Format:   format,
		MimeType: formatToMime(format),
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

func formatToMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png", "gif", "bmp", "tiff", "webp":
		return "image/" + format
	default:
		return "application/octet-stream"
	}
}

// SplitName separates a client file name into a sanitized stem and lowercase extension.
func SplitName(filename string) (name, ext string) {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext = strings.ToLower(filepath.Ext(base))
	name = strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		default:
			return -1
		}
	}, name)
	if name == "" {
		name = uuid.NewString()
	}
	return name, ext
}

// UniqueName returns a random stem for stored files.
func UniqueName() string {
	return uuid.NewString()
}

// ContentTypeFor guesses a MIME type from ext when the client sent none.
func ContentTypeFor(ext, provided string) string {
	if provided != "" {
		if mt, _, err := mime.ParseMediaType(provided); err == nil {
			return mt
		}
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
