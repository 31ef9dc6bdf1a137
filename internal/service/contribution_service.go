package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"contribflow/internal/domain"
	"contribflow/internal/logger"
	"contribflow/internal/service/youtube"
)

const publishPrivacy = "public"

// ContributionService ведёт жизненный цикл вкладов и их версий.
// Принятие версии сначала публикует её на канал и только потом меняет статусы
type ContributionService struct {
	repo      ContributionRepository
	media     *MediaService
	creators  CreatorRepository
	publisher Publisher
	prober    DurationProber
	log       *logrus.Entry
}

func NewContributionService(
	repo ContributionRepository,
	media *MediaService,
	creators CreatorRepository,
	publisher Publisher,
	prober DurationProber,
) *ContributionService {
	return &ContributionService{
		repo:      repo,
		media:     media,
		creators:  creators,
		publisher: publisher,
		prober:    prober,
		log:       logger.WithComponent("contribution-service"),
	}
}

func validateContributionInput(in domain.ContributionInput, video, thumbnail *domain.FileUpload) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if video == nil || len(video.Data) == 0 {
		return fmt.Errorf("%w: video file is required", domain.ErrValidation)
	}
	if thumbnail == nil || len(thumbnail.Data) == 0 {
		return fmt.Errorf("%w: thumbnail file is required", domain.ErrValidation)
	}
	return nil
}

type uploadedPair struct {
	video     *domain.Media
	thumbnail *domain.Media
	duration  int64
}

// uploadPair загружает видео и миниатюру; если миниатюра не загрузилась, видео удаляется
func (s *ContributionService) uploadPair(ctx context.Context, video, thumbnail *domain.FileUpload) (*uploadedPair, error) {
	videoMedia, err := s.media.SaveStandalone(ctx, MediaInput{Type: domain.MediaTypeVideo}, video)
	if err != nil {
		return nil, err
	}

	thumbMedia, err := s.media.SaveStandalone(ctx, MediaInput{Type: domain.MediaTypeImage}, thumbnail)
	if err != nil {
		if delErr := s.media.Delete(context.WithoutCancel(ctx), videoMedia.ID); delErr != nil {
			s.log.WithError(delErr).WithField("media_id", videoMedia.ID).Error("failed to clean up video after thumbnail failure")
		}
		return nil, err
	}

	return &uploadedPair{
		video:     videoMedia,
		thumbnail: thumbMedia,
		duration:  s.prober.Duration(ctx, video),
	}, nil
}

// discard удаляет загруженную пару, когда запись в базу не удалась
func (s *ContributionService) discard(ctx context.Context, pair *uploadedPair) {
	ctx = context.WithoutCancel(ctx)
	for _, m := range []*domain.Media{pair.video, pair.thumbnail} {
		if err := s.media.Delete(ctx, m.ID); err != nil {
			s.log.WithError(err).WithField("media_id", m.ID).Error("failed to clean up media after repository failure")
		}
	}
}

// CreateContribution создаёт вклад и его первую версию
func (s *ContributionService) CreateContribution(
	ctx context.Context,
	in domain.CreateContributionInput,
	video, thumbnail *domain.FileUpload,
	editorID string,
) (*domain.Contribute, error) {
	if in.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	if editorID == "" {
		return nil, fmt.Errorf("%w: editor id is required", domain.ErrValidation)
	}
	if err := validateContributionInput(in.ContributionInput, video, thumbnail); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadPair(ctx, video, thumbnail)
	if err != nil {
		return nil, err
	}

	contribution, err := s.repo.CreateWithInitialVersion(ctx, domain.NewContribution{
		AccountID:   in.AccountID,
		EditorID:    editorID,
		VideoID:     uploaded.video.ID,
		ThumbnailID: uploaded.thumbnail.ID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Duration:    uploaded.duration,
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}

	contribution.Video = uploaded.video
	contribution.Thumbnail = uploaded.thumbnail
	s.log.WithFields(logrus.Fields{"contribution": contribution.ID, "editor": editorID}).Info("contribution created")
	return contribution, nil
}

// CreateVersion добавляет новую версию к существующему вкладу
func (s *ContributionService) CreateVersion(
	ctx context.Context,
	contributeID uuid.UUID,
	in domain.ContributionInput,
	video, thumbnail *domain.FileUpload,
) (*domain.ContributionVersion, error) {
	if err := validateContributionInput(in, video, thumbnail); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, contributeID); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadPair(ctx, video, thumbnail)
	if err != nil {
		return nil, err
	}

	version, err := s.repo.CreateVersion(ctx, domain.NewVersion{
		ContributeID: contributeID,
		VideoID:      uploaded.video.ID,
		ThumbnailID:  uploaded.thumbnail.ID,
		Title:        in.Title,
		Description:  in.Description,
		Tags:         in.Tags,
		Duration:     uploaded.duration,
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}

	version.Video = uploaded.video
	version.Thumbnail = uploaded.thumbnail
	s.log.WithFields(logrus.Fields{"contribution": contributeID, "version": version.VersionNumber}).Info("version created")
	return version, nil
}

// UpdateVersionStatus переводит ожидающую версию в COMPLETED или REJECTED
func (s *ContributionService) UpdateVersionStatus(ctx context.Context, versionID uuid.UUID, status domain.ContributionStatus) (*domain.ContributionVersion, error) {
	if status != domain.StatusCompleted && status != domain.StatusRejected {
		return nil, fmt.Errorf("%w: status must be COMPLETED or REJECTED, got %q", domain.ErrValidation, status)
	}

	version, err := s.repo.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.Status.Terminal() {
		return nil, fmt.Errorf("%w: version is already %s", domain.ErrValidation, version.Status)
	}

	if status == domain.StatusRejected {
		return s.repo.SetVersionStatus(ctx, versionID, status)
	}

	req, err := s.publishRequest(ctx, version)
	if err != nil {
		return nil, err
	}

	if ok := s.publisher.PublishAcceptedVersion(ctx, *req); !ok {
		s.log.WithField("version", versionID).Error("publish failed, version left unchanged")
		return nil, fmt.Errorf("%w: failed to upload video", domain.ErrInternal)
	}

	accepted, err := s.repo.AcceptVersion(ctx, versionID, version.ContributeID)
	if err != nil {
		// видео уже на канале, но статусы не записаны
		s.log.WithError(err).WithField("version", versionID).Error("video published but acceptance was not stored")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"contribution": version.ContributeID, "version": versionID}).Info("version accepted")
	return accepted, nil
}

// publishRequest собирает данные для публикации и проверяет, что ничего не пропало
func (s *ContributionService) publishRequest(ctx context.Context, version *domain.ContributionVersion) (*youtube.PublishRequest, error) {
	contribution, err := s.repo.GetByID(ctx, version.ContributeID)
	if err != nil {
		return nil, err
	}
	if contribution.Status == domain.StatusCompleted {
		return nil, fmt.Errorf("%w: contribution %s is already completed", domain.ErrConflict, contribution.ID)
	}
	account, err := s.creators.GetByID(ctx, contribution.AccountID)
	if err != nil {
		return nil, err
	}
	video, err := s.media.GetByID(ctx, version.VideoID)
	if err != nil {
		return nil, err
	}
	thumbnail, err := s.media.GetByID(ctx, version.ThumbnailID)
	if err != nil {
		return nil, err
	}

	missing := func(what string) error {
		return fmt.Errorf("%w: %s not found for version %s", domain.ErrNotFound, what, version.ID)
	}
	switch {
	case account.CreatorID == "":
		return nil, missing("creator id")
	case video.Key() == "":
		return nil, missing("video key")
	case thumbnail.Key() == "":
		return nil, missing("thumbnail key")
	case version.Title == "":
		return nil, missing("title")
	case version.Description == "":
		return nil, missing("description")
	case len(version.Tags) == 0:
		return nil, missing("tags")
	}

	return &youtube.PublishRequest{
		CreatorID:   account.ID,
		VideoKey:    video.Key(),
		ThumbKey:    thumbnail.Key(),
		Title:       version.Title,
		Description: version.Description,
		Tags:        version.Tags,
		Privacy:     publishPrivacy,
	}, nil
}

// UpdateContributionStatus меняет статус самого вклада без затрагивания версий
func (s *ContributionService) UpdateContributionStatus(ctx context.Context, id uuid.UUID, status domain.ContributionStatus) (*domain.Contribute, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// GetContribution возвращает вклад вместе с версиями
func (s *ContributionService) GetContribution(ctx context.Context, id uuid.UUID) (*domain.Contribute, error) {
	contribution, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	contribution.Versions = versions
	return contribution, nil
}

func (s *ContributionService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Contribute, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func (s *ContributionService) ListVersions(ctx context.Context, contributeID uuid.UUID) ([]domain.ContributionVersion, error) {
	if _, err := s.repo.GetByID(ctx, contributeID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, contributeID)
}

// GetVersion возвращает версию с медиа и комментариями
func (s *ContributionService) GetVersion(ctx context.Context, id uuid.UUID) (*domain.ContributionVersion, error) {
	version, err := s.repo.GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if version.Video, err = s.media.GetByID(ctx, version.VideoID); err != nil {
		return nil, err
	}
	if version.Thumbnail, err = s.media.GetByID(ctx, version.ThumbnailID); err != nil {
		return nil, err
	}
	if version.Comments, err = s.repo.ListComments(ctx, id); err != nil {
		return nil, err
	}
	return version, nil
}

func (s *ContributionService) AddVersionComment(ctx context.Context, versionID uuid.UUID, authorID, content string) (*domain.VersionComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", domain.ErrValidation)
	}
	if _, err := s.repo.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}

	comment := &domain.VersionComment{VersionID: versionID, AuthorID: authorID, Content: content}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ContributionService) ListVersionComments(ctx context.Context, versionID uuid.UUID) ([]domain.VersionComment, error) {
	if _, err := s.repo.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, versionID)
}
