// Package files implements the access-controlled file catalog: metadata
// records, the per-user visibility query, the upload/delete sagas over the
// blob store, and the storage usage aggregation.
package files

import (
	"path/filepath"
	"strings"
	"time"
)

// Category is the closed set of file categories. Every record is assigned
// exactly one at upload time.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryOther    Category = "other"
)

// Categories lists all valid categories in a stable order.
var Categories = []Category{CategoryImage, CategoryDocument, CategoryVideo, CategoryAudio, CategoryOther}

// ParseCategory validates a category name coming from the outside.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryImage, CategoryDocument, CategoryVideo, CategoryAudio, CategoryOther:
		return Category(s), true
	}
	return "", false
}

var extensionCategories = map[string]Category{
	// image
	"jpg": CategoryImage, "jpeg": CategoryImage, "png": CategoryImage,
	"gif": CategoryImage, "bmp": CategoryImage, "svg": CategoryImage,
	"webp": CategoryImage, "heic": CategoryImage,
	// document
	"pdf": CategoryDocument, "doc": CategoryDocument, "docx": CategoryDocument,
	"txt": CategoryDocument, "md": CategoryDocument, "rtf": CategoryDocument,
	"xls": CategoryDocument, "xlsx": CategoryDocument, "csv": CategoryDocument,
	"ppt": CategoryDocument, "pptx": CategoryDocument, "odt": CategoryDocument,
	"ods": CategoryDocument, "odp": CategoryDocument, "epub": CategoryDocument,
	// video
	"mp4": CategoryVideo, "avi": CategoryVideo, "mov": CategoryVideo,
	"mkv": CategoryVideo, "webm": CategoryVideo,
	// audio
	"mp3": CategoryAudio, "wav": CategoryAudio, "ogg": CategoryAudio,
	"flac": CategoryAudio, "aac": CategoryAudio, "m4a": CategoryAudio,
}

// SplitName separates a file name into its extension (without the dot,
// lower-cased) and the category derived from it. Names without a recognized
// extension land in CategoryOther.
func SplitName(name string) (extension string, category Category) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if cat, ok := extensionCategories[ext]; ok {
		return ext, cat
	}
	return ext, CategoryOther
}

// FileRecord is the metadata document for one stored object. OwnerID and
// Size are immutable after creation; a rename changes Name only.
type FileRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Extension    string    `json:"extension"`
	Type         Category  `json:"type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	BucketFileID string    `json:"bucketFileId"`
	OwnerID      string    `json:"ownerId"`
	SharedWith   []string  `json:"sharedWith"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SharedWithEmail reports whether the record has been shared with the given
// address.
func (f *FileRecord) SharedWithEmail(email string) bool {
	for _, e := range f.SharedWith {
		if e == email {
			return true
		}
	}
	return false
}
