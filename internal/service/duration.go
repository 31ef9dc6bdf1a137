package service

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xfrr/goffmpeg/transcoder"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
)

// FFProbe читает длительность видео из метаданных ffprobe
type FFProbe struct {
	log *logrus.Entry
}

func NewFFProbe() *FFProbe {
	return &FFProbe{log: logger.WithComponent("ffprobe")}
}

// Duration возвращает длительность в секундах. При любой ошибке - 0 и предупреждение в логе
func (p *FFProbe) Duration(ctx context.Context, file *domain.FileUpload) int64 {
	if file == nil || len(file.Data) == 0 {
		return 0
	}

	input, err := os.CreateTemp(os.TempDir(), "probe-*."+file.Subtype())
	if err != nil {
		p.log.WithError(err).Warn("failed to create temp file for probe")
		return 0
	}
	defer os.Remove(input.Name())

	if _, err := input.Write(file.Data); err != nil {
		input.Close()
		p.log.WithError(err).Warn("failed to write temp file for probe")
		return 0
	}
	if err := input.Close(); err != nil {
		p.log.WithError(err).Warn("failed to close temp file for probe")
		return 0
	}

	if ctx.Err() != nil {
		return 0
	}

	trans := new(transcoder.Transcoder)
	// выходной файл не создаётся, нужен только разбор входа
	if err := trans.Initialize(input.Name(), input.Name()+".out"); err != nil {
		p.log.WithError(err).WithField("file", file.Name).Warn("failed to probe video duration")
		return 0
	}

	return parseDuration(trans.MediaFile().Metadata().Format.Duration)
}

// parseDuration округляет строку секунд ffprobe ("12.480000") до целых
func parseDuration(raw string) int64 {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return int64(math.Round(seconds))
}
