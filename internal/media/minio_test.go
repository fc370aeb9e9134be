package media_test

import (
	"forensiai/backend/internal/media"
	"forensiai/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name  string
		media models.MediaRecord
		want  string
	}{
		{"plain", models.MediaRecord{ID: "m1", FileName: "IMG_0023.jpg"}, "CASE-2024-0001/m1/IMG_0023.jpg"},
		{"path in name", models.MediaRecord{ID: "m1", FileName: "DCIM/Camera/IMG 1.jpg"}, "CASE-2024-0001/m1/IMG_1.jpg"},
		{"no name", models.MediaRecord{ID: "CASE-2024-0001_media_3"}, "CASE-2024-0001/CASE-2024-0001_media_3/blob"},
		{"traversal", models.MediaRecord{ID: "../x", FileName: "../../etc/passwd"}, "CASE-2024-0001/.._x/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, media.ObjectKey("CASE-2024-0001", tt.media))
		})
	}
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://minio.local:9000/evidence-media/a/b.jpg", media.ObjectURL("https://minio.local:9000/", "evidence-media", "a/b.jpg"))
}
