package casesync

import (
	"context"
	"encoding/base64"
	"errors"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"log"
	"net/url"
	"strings"
)

var errNotDataURL = errors.New("not a base64 data url")

// resolveMediaURLs makes every media URL on c safe to persist. Durable URLs
// and small inline data URLs are kept. Anything else is uploaded when an
// uploader and the bytes are available, and cleared otherwise so no stored
// row points at a handle that dies with this process.
//
// Uploaded URLs are written back to c. A transient URL that could not be
// uploaded stays on c for the current session and is stored empty.
func (m *Manager) resolveMediaURLs(ctx context.Context, c *models.Case) {
	for i := range c.Media {
		media := &c.Media[i]
		kind := models.ClassifyURL(media.URL)
		if kind == models.URLDurable || kind == models.URLEmpty && len(media.Blob) == 0 {
			continue
		}
		if kind == models.URLInlineData && len(media.URL) <= config.MaxInlineURLLength {
			continue
		}

		data := media.Blob
		if len(data) == 0 && kind == models.URLInlineData {
			decoded, err := decodeDataURL(media.URL)
			if err != nil {
				log.Printf("WARNING: Media %s in case %s has an unreadable data url: %v", media.ID, c.ID, err)
			}
			data = decoded
		}

		if durable, ok := m.upload(ctx, c.ID, *media, data); ok {
			media.URL = durable
			media.NeedsReextraction = false
		}
	}
}

func (m *Manager) upload(ctx context.Context, caseID string, media models.MediaRecord, data []byte) (string, bool) {
	if m.uploader == nil || len(data) == 0 {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, config.MediaUploadTimeout)
	defer cancel()

	durable, err := m.uploader.Upload(ctx, caseID, media, data)
	if err != nil {
		log.Printf("WARNING: Failed to upload media %s for case %s, storing without url: %v", media.ID, caseID, err)
		return "", false
	}
	return durable, true
}

// storedURL is the URL value written for media: only durable URLs and
// inline data within the size cap survive.
func storedURL(raw string) string {
	switch models.ClassifyURL(raw) {
	case models.URLDurable:
		return raw
	case models.URLInlineData:
		if len(raw) <= config.MaxInlineURLLength {
			return raw
		}
	}
	return ""
}

// decodeDataURL returns the payload of a data: URL.
func decodeDataURL(raw string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, errNotDataURL
	}
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(decoded), nil
}
