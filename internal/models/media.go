package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MediaKind string

const (
	MediaReport     MediaKind = "report"
	MediaCompletion MediaKind = "completion"
	MediaAvatar     MediaKind = "avatar"
)

func (k MediaKind) IsValid() bool {
	switch k {
	case MediaReport, MediaCompletion, MediaAvatar:
		return true
	}
	return false
}

const MaxUploadSize = 5 << 20

// allowedImageTypes maps content type to file extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func ImageExtension(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[contentType]
	return ext, ok
}

type Media struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        MediaKind          `bson:"kind"          json:"kind"`
	UserID      primitive.ObjectID `bson:"user_id"       json:"user_id"`
	FileName    string             `bson:"file_name"     json:"file_name"`
	ObjectKey   string             `bson:"object_key"    json:"object_key"`
	URL         string             `bson:"url"           json:"url"`
	ContentType string             `bson:"content_type"  json:"content_type"`
	Size        int64              `bson:"size"          json:"size"`
	CreatedAt   time.Time          `bson:"created_at"    json:"created_at"`
}
