package service

import (
	"fmt"

	"github.com/h2non/bimg"

	"contribflow/internal/domain"
)

const (
	maxThumbnailBytes = 2 * 1024 * 1024 // 2MB, ограничение YouTube
	maxThumbnailWidth = 1280
	thumbnailQuality  = 85
)

// PrepareThumbnail приводит миниатюру к ограничениям видеохостинга:
// слишком большие или широкие изображения пережимаются в JPEG шириной не больше 1280px
func PrepareThumbnail(file *domain.FileUpload) (*domain.FileUpload, error) {
	image := bimg.NewImage(file.Data)

	size, err := image.Size()
	if err != nil {
		return nil, fmt.Errorf("%w: thumbnail is not a valid image: %v", domain.ErrValidation, err)
	}

	if len(file.Data) <= maxThumbnailBytes && size.Width <= maxThumbnailWidth {
		return file, nil
	}

	width, height := size.Width, size.Height
	if width > maxThumbnailWidth {
		width, height = scaleToWidth(size.Width, size.Height, maxThumbnailWidth)
	}

	processed, err := image.Process(bimg.Options{
		Width:   width,
		Height:  height,
		Quality: thumbnailQuality,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process thumbnail: %w", err)
	}

	return &domain.FileUpload{
		Name:     file.Name,
		MIMEType: "image/jpeg",
		Size:     int64(len(processed)),
		Data:     processed,
	}, nil
}

// scaleToWidth сохраняет пропорции при уменьшении ширины
func scaleToWidth(width, height, maxWidth int) (int, int) {
	if width <= 0 {
		return maxWidth, height
	}
	return maxWidth, height * maxWidth / width
}
