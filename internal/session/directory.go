package session

import (
	"cmp"
	"context"
	"crypto/subtle"
	"errors"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"log"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers an unknown badge and a wrong token alike.
var ErrInvalidCredentials = errors.New("invalid badge or access token")

// OnlineSource lists officers with an open session.
type OnlineSource interface {
	Online(ctx context.Context) ([]string, error)
}

// Directory reads the officer roster. Reads never fail: an unreachable
// store yields an empty roster.
type Directory struct {
	remote       storage.RemoteStore
	presence     OnlineSource
	offlineToken string
}

type DirectoryOption func(*Directory)

// WithOfflineToken sets the shared access token accepted when there is no
// remote store. Without it offline sign-in is refused.
func WithOfflineToken(token string) DirectoryOption {
	return func(d *Directory) { d.offlineToken = token }
}

// NewDirectory returns a directory over remote. presence may be nil, in
// which case the stored online column is reported as is.
func NewDirectory(remote storage.RemoteStore, presence OnlineSource, opts ...DirectoryOption) *Directory {
	d := &Directory{remote: remote, presence: presence}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HashToken returns the value stored as an officer's token hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Officers returns every officer sorted by name.
func (d *Directory) Officers(ctx context.Context) []models.Officer {
	out := []models.Officer{}
	if d.remote == nil {
		return out
	}
	rows, err := d.remote.SelectWhere(ctx, models.TableOfficers, storage.Predicate{})
	if err != nil {
		log.Printf("WARNING: Failed to load %s, showing none: %v", models.TableOfficers, err)
		return out
	}
	for _, r := range rows {
		out = append(out, models.OfficerFromRow(r))
	}
	d.applyPresence(ctx, out)
	slices.SortFunc(out, func(a, b models.Officer) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Authenticate returns the officer holding badgeID if token matches their
// stored access token. Offline, any badge signs in with the shared offline
// token and resolves to a local officer named after it.
func (d *Directory) Authenticate(ctx context.Context, badgeID, token string) (models.Officer, error) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" || token == "" {
		return models.Officer{}, ErrInvalidCredentials
	}
	if d.remote == nil {
		if d.offlineToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(d.offlineToken)) != 1 {
			return models.Officer{}, ErrInvalidCredentials
		}
		return models.Officer{ID: badgeID, Name: badgeID, Role: "investigator", Online: true}, nil
	}
	rows, err := d.remote.SelectWhere(ctx, models.TableOfficers, storage.Where("badge_id", badgeID))
	if err != nil {
		return models.Officer{}, err
	}
	if len(rows) == 0 {
		return models.Officer{}, ErrInvalidCredentials
	}
	hash := models.OfficerTokenHashFromRow(rows[0])
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
		return models.Officer{}, ErrInvalidCredentials
	}
	o := models.OfficerFromRow(rows[0])
	o.Online = true
	return o, nil
}

func (d *Directory) applyPresence(ctx context.Context, officers []models.Officer) {
	if d.presence == nil {
		return
	}
	ids, err := d.presence.Online(ctx)
	if err != nil {
		log.Printf("WARNING: Failed to read officer presence: %v", err)
		return
	}
	for i := range officers {
		officers[i].Online = slices.Contains(ids, officers[i].ID)
	}
}
