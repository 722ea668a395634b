// Package minicourse holds the records stored for the minicourse platform.
package minicourse

import (
	"strings"
	"time"
	"unicode"
)

// Audit carries who created and last changed a record. Repositories fill it
// from the identity injected for the current request.
type Audit struct {
	CreatedBy string `json:"created_by,omitempty" dynamodbav:"created_by,omitempty"`
	CreatedAt string `json:"created_at,omitempty" dynamodbav:"created_at,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty" dynamodbav:"updated_by,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty" dynamodbav:"updated_at,omitempty"`
}

// Stamp records username as author of an insert or an update.
func (a *Audit) Stamp(username string, at time.Time, update bool) {
	stamp := at.UTC().Format(time.RFC3339)
	if update {
		a.UpdatedBy = username
		a.UpdatedAt = stamp
		return
	}
	a.CreatedBy = username
	a.CreatedAt = stamp
	a.UpdatedBy = ""
	a.UpdatedAt = ""
}

// Category groups minicourses.
type Category struct {
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Audit
}

// Minicourse is a short course with a thumbnail stored in the bucket.
type Minicourse struct {
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	ThumbExt    string `json:"thumb_ext" dynamodbav:"thumb_ext"`
	CategoryID  string `json:"category_id" dynamodbav:"category_id"`
	Audit
}

// ThumbObjectName is the bucket object holding the thumbnail.
func (m Minicourse) ThumbObjectName() string {
	return m.ID + "." + m.ThumbExt
}

// Video belongs to a minicourse; its file lives in the bucket.
type Video struct {
	ID           string `json:"id" dynamodbav:"id"`
	Name         string `json:"name" dynamodbav:"name"`
	Ext          string `json:"ext" dynamodbav:"ext"`
	MinicourseID string `json:"minicourse_id" dynamodbav:"minicourse_id"`
	Audit
}

// ObjectName is the bucket object holding the video file.
func (v Video) ObjectName() string {
	return v.ID + "." + v.Ext
}

// CleanExtension keeps only the letters and digits of a file extension,
// so ".__MP4" and "mp4" name the same object suffix.
func CleanExtension(ext string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, ext)
}
