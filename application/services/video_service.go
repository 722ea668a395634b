package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"minicourse-backend/application/ports"
	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/persistence"
	"minicourse-backend/pkg/idgen"
)

// VideosFolder holds video files in the bucket.
const VideosFolder = "video"

const (
	videoIDLength = 16
	videoIDTries  = 3
)

// VideoConfig carries the settings of the video functions.
type VideoConfig struct {
	MinicourseIndex string
	UploadExpire    time.Duration
	DownloadExpire  time.Duration
}

// CreateVideoRequest is the body of a create call.
type CreateVideoRequest struct {
	Name         string `json:"name" validate:"required"`
	Ext          string `json:"ext" validate:"required"`
	MinicourseID string `json:"minicourse_id" validate:"required"`
}

// CreatedVideo is returned by Create.
type CreatedVideo struct {
	Video     minicourse.Video `json:"video"`
	UploadURL string           `json:"upload_url"`
}

// VideoWithURL is a video plus a download URL for its file.
type VideoWithURL struct {
	Video       minicourse.Video `json:"video"`
	DownloadURL string           `json:"download_url"`
}

// VideoList is returned by multi-record reads.
type VideoList struct {
	Videos []minicourse.Video `json:"videos"`
}

// VideoService implements the video operations.
type VideoService struct {
	videos ports.VideoRepository
	cfg    VideoConfig
	logger *zap.Logger
}

// NewVideoService creates the service.
func NewVideoService(videos ports.VideoRepository, cfg VideoConfig, logger *zap.Logger) *VideoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoService{videos: videos, cfg: cfg, logger: logger}
}

// Create stores a new video of a minicourse and returns an upload URL for
// its file. The id is the minicourse id followed by a random suffix.
func (s *VideoService) Create(ctx context.Context, req CreateVideoRequest) (*CreatedVideo, error) {
	v := minicourse.Video{
		Name:         req.Name,
		Ext:          minicourse.CleanExtension(req.Ext),
		MinicourseID: req.MinicourseID,
	}

	retrier := idgen.Retrier{
		Prefix:  req.MinicourseID,
		Length:  videoIDLength,
		Tries:   videoIDTries,
		RetryOn: persistence.ErrAlreadyExists,
		Logger:  s.logger,
	}
	if _, err := retrier.Do(ctx, func(ctx context.Context, id string) error {
		v.ID = id
		return s.videos.Save(ctx, &v, false)
	}); err != nil {
		return nil, fmt.Errorf("could not create video: %w", err)
	}

	url, err := s.videos.PutPresignedURL(ctx, VideosFolder, v.ObjectName(), s.cfg.UploadExpire)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Video created", zap.String("video_id", v.ID), zap.String("minicourse_id", v.MinicourseID))
	return &CreatedVideo{Video: v, UploadURL: url}, nil
}

// Get returns a video with a download URL for its file.
func (s *VideoService) Get(ctx context.Context, id string) (*VideoWithURL, error) {
	v, err := s.videos.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.videos.GetPresignedURL(ctx, VideosFolder, v.ObjectName(), s.cfg.DownloadExpire)
	if err != nil {
		return nil, err
	}
	return &VideoWithURL{Video: *v, DownloadURL: url}, nil
}

// ByMinicourse lists the videos of a minicourse through the minicourse index.
func (s *VideoService) ByMinicourse(ctx context.Context, minicourseID string) (*VideoList, error) {
	found, err := s.videos.Query(ctx, map[string]any{"minicourse_id": minicourseID}, nil, s.cfg.MinicourseIndex)
	if err != nil {
		return nil, err
	}
	return &VideoList{Videos: found}, nil
}

// Delete removes an existing video and returns it.
func (s *VideoService) Delete(ctx context.Context, id string) (*minicourse.Video, error) {
	v, err := s.videos.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("Video deleted", zap.String("video_id", id))
	return v, nil
}
