package service

import (
	"strings"

	"xchangez/internal/models"
	"xchangez/internal/storage"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageKind selects which profile image an upload replaces.
type ImageKind int

const (
	ImageAvatar ImageKind = 1
	ImageCover  ImageKind = 2
)

// ParseImageKind accepts "avatar"/"cover" or their numeric codes.
func ParseImageKind(s string) (ImageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avatar", "1":
		return ImageAvatar, nil
	case "cover", "2":
		return ImageCover, nil
	}
	return 0, models.NewValidationError("image kind must be avatar or cover")
}

func (u Upload) split() (name, ext string) {
	return storage.SplitName(u.Filename)
}
