package domain

import (
	"fmt"
	"net/http"
)

const (
	MaxImages     = 5
	MaxImageBytes = 5 << 20
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DetectedType returns the declared content type, sniffing the payload when
// none was given.
func (i Image) DetectedType() string {
	if i.ContentType != "" {
		return i.ContentType
	}
	return http.DetectContentType(i.Data)
}

func ValidateImages(images []Image) error {
	verr := &ValidationError{}
	if len(images) > MaxImages {
		verr.Add("images", fmt.Sprintf("at most %d images are allowed", MaxImages))
	}
	for _, img := range images {
		if len(img.Data) == 0 {
			verr.Add("images", fmt.Sprintf("%s is empty", img.Filename))
			continue
		}
		if len(img.Data) > MaxImageBytes {
			verr.Add("images", fmt.Sprintf("%s exceeds %d MB", img.Filename, MaxImageBytes>>20))
			continue
		}
		if !allowedImageTypes[img.DetectedType()] {
			verr.Add("images", fmt.Sprintf("%s has unsupported type %s", img.Filename, img.DetectedType()))
		}
	}
	return verr.OrNil()
}
