package di

import (
	"minicourse-backend/application/services"
	"minicourse-backend/infrastructure/config"
)

// MinicourseSettings are read by the minicourse functions. Embed with
// `koanf:",squash"` next to config.Base.
type MinicourseSettings struct {
	MinicourseTableName     string         `koanf:"minicourse_table_name" validate:"required"`
	MinicourseBucketName    string         `koanf:"minicourse_bucket_name"`
	MinicourseCategoryIndex string         `koanf:"minicourse_category_index"`
	ThumbUploadExpireTime   config.Seconds `koanf:"thumb_upload_expire_time" validate:"gte=0"`
	ThumbDownloadExpireTime config.Seconds `koanf:"thumb_download_expire_time" validate:"gte=0"`
	// MultipleMinicourseRetrivalLimit of zero disables the cap.
	MultipleMinicourseRetrivalLimit int `koanf:"multiple_minicourse_retrival_limit"`
}

// DefaultMinicourseSettings fills what the environment may leave out.
func DefaultMinicourseSettings() MinicourseSettings {
	return MinicourseSettings{
		MinicourseCategoryIndex:         "category_id-index",
		ThumbUploadExpireTime:           300,
		ThumbDownloadExpireTime:         3600,
		MultipleMinicourseRetrivalLimit: 20,
	}
}

// ServiceConfig converts s for the minicourse service.
func (s MinicourseSettings) ServiceConfig() services.MinicourseConfig {
	return services.MinicourseConfig{
		CategoryIndex:       s.MinicourseCategoryIndex,
		ThumbUploadExpire:   s.ThumbUploadExpireTime.Duration(),
		ThumbDownloadExpire: s.ThumbDownloadExpireTime.Duration(),
		RetrievalLimit:      s.MultipleMinicourseRetrivalLimit,
	}
}

// CategorySettings are read by the category functions and by create-minicourse.
type CategorySettings struct {
	CategoryTableName string `koanf:"category_table_name" validate:"required"`
}

// VideoSettings are read by the video functions.
type VideoSettings struct {
	VideoTableName       string         `koanf:"video_table_name" validate:"required"`
	VideoBucketName      string         `koanf:"video_bucket_name"`
	VideoMinicourseIndex string         `koanf:"video_minicourse_index"`
	UploadExpireTime     config.Seconds `koanf:"upload_expire_time" validate:"gte=0"`
	DownloadExpireTime   config.Seconds `koanf:"download_expire_time" validate:"gte=0"`
}

// DefaultVideoSettings fills what the environment may leave out.
func DefaultVideoSettings() VideoSettings {
	return VideoSettings{
		VideoMinicourseIndex: "minicourse_id-index",
		UploadExpireTime:     3600,
		DownloadExpireTime:   3600,
	}
}

// ServiceConfig converts s for the video service.
func (s VideoSettings) ServiceConfig() services.VideoConfig {
	return services.VideoConfig{
		MinicourseIndex: s.VideoMinicourseIndex,
		UploadExpire:    s.UploadExpireTime.Duration(),
		DownloadExpire:  s.DownloadExpireTime.Duration(),
	}
}
