// Package services implements the minicourse platform operations on top of
// the repositories declared in application/ports.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"minicourse-backend/application/ports"
	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/persistence"
	"minicourse-backend/pkg/common"
	appErrors "minicourse-backend/pkg/errors"
	"minicourse-backend/pkg/idgen"
)

// ThumbsFolder holds minicourse thumbnails in the bucket.
const ThumbsFolder = "thumbs"

const (
	minicourseIDLength = 16
	minicourseIDTries  = 3
)

// protectedFields cannot be changed through an update.
var protectedFields = []string{"id", "created_by", "created_at", "updated_by", "updated_at"}

// MinicourseConfig carries the settings of the minicourse functions.
type MinicourseConfig struct {
	CategoryIndex       string
	ThumbUploadExpire   time.Duration
	ThumbDownloadExpire time.Duration
	// RetrievalLimit caps GetMultiple; zero or less means no cap.
	RetrievalLimit int
}

// CreateMinicourseRequest is the body of a create call.
type CreateMinicourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ThumbExt    string `json:"thumb_ext" validate:"required"`
	CategoryID  string `json:"category_id" validate:"required"`
}

// CreatedMinicourse is returned by Create.
type CreatedMinicourse struct {
	Minicourse     minicourse.Minicourse `json:"minicourse"`
	ThumbUploadURL string                `json:"thumb_upload_url"`
}

// MinicourseWithThumb is a minicourse plus a download URL for its thumbnail.
type MinicourseWithThumb struct {
	Minicourse       minicourse.Minicourse `json:"minicourse"`
	ThumbDownloadURL string                `json:"thumb_download_url"`
}

// MinicourseList is returned by multi-record reads.
type MinicourseList[T any] struct {
	Minicourses []T `json:"minicourses"`
}

// ThumbUpload carries a fresh thumbnail upload URL.
type ThumbUpload struct {
	ThumbUploadURL string `json:"thumb_upload_url"`
}

// MinicourseService implements the minicourse operations.
type MinicourseService struct {
	minicourses ports.MinicourseRepository
	categories  ports.CategoryRepository
	cfg         MinicourseConfig
	logger      *zap.Logger
}

// NewMinicourseService creates the service. categories is only needed by Create.
func NewMinicourseService(
	minicourses ports.MinicourseRepository,
	categories ports.CategoryRepository,
	cfg MinicourseConfig,
	logger *zap.Logger,
) *MinicourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinicourseService{
		minicourses: minicourses,
		categories:  categories,
		cfg:         cfg,
		logger:      logger,
	}
}

// Create stores a new minicourse under an existing category. Its id is the
// category id followed by a random suffix.
func (s *MinicourseService) Create(ctx context.Context, req CreateMinicourseRequest) (*CreatedMinicourse, error) {
	if s.categories == nil {
		return nil, appErrors.NewInternalError("minicourse service has no category repository")
	}
	category, err := s.categories.GetItemByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("category %s for new minicourse: %w", req.CategoryID, err)
	}

	m := minicourse.Minicourse{
		Name:        req.Name,
		Description: req.Description,
		ThumbExt:    minicourse.CleanExtension(req.ThumbExt),
		CategoryID:  category.ID,
	}

	retrier := idgen.Retrier{
		Prefix:  category.ID,
		Length:  minicourseIDLength,
		Tries:   minicourseIDTries,
		RetryOn: persistence.ErrAlreadyExists,
		Logger:  s.logger,
	}
	if _, err := retrier.Do(ctx, func(ctx context.Context, id string) error {
		m.ID = id
		return s.minicourses.Save(ctx, &m, false)
	}); err != nil {
		return nil, fmt.Errorf("could not create minicourse: %w", err)
	}

	url, err := s.minicourses.PutPresignedURL(ctx, ThumbsFolder, m.ThumbObjectName(), s.cfg.ThumbUploadExpire)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Minicourse created", zap.String("minicourse_id", m.ID), zap.String("category_id", m.CategoryID))
	return &CreatedMinicourse{Minicourse: m, ThumbUploadURL: url}, nil
}

// Get returns a minicourse with a thumbnail download URL.
func (s *MinicourseService) Get(ctx context.Context, id string) (*MinicourseWithThumb, error) {
	m, err := s.minicourses.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.minicourses.GetPresignedURL(ctx, ThumbsFolder, m.ThumbObjectName(), s.cfg.ThumbDownloadExpire)
	if err != nil {
		return nil, err
	}
	return &MinicourseWithThumb{Minicourse: *m, ThumbDownloadURL: url}, nil
}

// GetMultiple is Get for every id, in order. It fails with
// ErrTooManyMinicourses above the configured limit.
func (s *MinicourseService) GetMultiple(ctx context.Context, ids []string) (*MinicourseList[MinicourseWithThumb], error) {
	if s.cfg.RetrievalLimit > 0 && len(ids) > s.cfg.RetrievalLimit {
		return nil, fmt.Errorf("%w: %d requested, limit is %d", appErrors.ErrTooManyMinicourses, len(ids), s.cfg.RetrievalLimit)
	}

	result := make([]MinicourseWithThumb, 0, len(ids))
	for _, id := range ids {
		m, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return &MinicourseList[MinicourseWithThumb]{Minicourses: result}, nil
}

// ThumbUploadURL returns a new upload URL for the thumbnail of minicourse id.
func (s *MinicourseService) ThumbUploadURL(ctx context.Context, id string) (*ThumbUpload, error) {
	m, err := s.minicourses.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.minicourses.PutPresignedURL(ctx, ThumbsFolder, m.ThumbObjectName(), s.cfg.ThumbUploadExpire)
	if err != nil {
		return nil, err
	}
	return &ThumbUpload{ThumbUploadURL: url}, nil
}

// ByCategory lists the minicourses of a category through the category index.
func (s *MinicourseService) ByCategory(ctx context.Context, categoryID string) (*MinicourseList[minicourse.Minicourse], error) {
	found, err := s.minicourses.Query(ctx, map[string]any{"category_id": categoryID}, nil, s.cfg.CategoryIndex)
	if err != nil {
		return nil, err
	}
	return &MinicourseList[minicourse.Minicourse]{Minicourses: found}, nil
}

// Update merges fields onto the stored minicourse. The id and audit
// fields are kept.
func (s *MinicourseService) Update(ctx context.Context, id string, fields map[string]any) (*minicourse.Minicourse, error) {
	stored, err := s.minicourses.GetItemByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("minicourse %s could not be built: %w", id, err)
	}

	updated, err := common.MergeFields(*stored, fields, protectedFields...)
	if err != nil {
		return nil, fmt.Errorf("minicourse %s could not be built: %w", id, err)
	}
	if fields["thumb_ext"] != nil {
		updated.ThumbExt = minicourse.CleanExtension(updated.ThumbExt)
	}

	if err := s.minicourses.Save(ctx, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an existing minicourse and returns it.
func (s *MinicourseService) Delete(ctx context.Context, id string) (*minicourse.Minicourse, error) {
	m, err := s.minicourses.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.minicourses.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("Minicourse deleted", zap.String("minicourse_id", id))
	return m, nil
}
