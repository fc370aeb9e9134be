// Package annotation appends comments to media evidence.
package annotation

import (
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"log"
	"slices"
	"strings"
	"sync"
)

var (
	ErrEvidenceNotFound = errors.New("evidence not found")
	ErrEmptyComment     = errors.New("comment is empty")
)

// CaseView gives exclusive access to the snapshot comments are added to.
type CaseView interface {
	Update(fn func(c *models.Case))
}

// Store adds comments to the snapshot and persists each item's full list.
//
// Every write replaces the stored list with this client's copy. Two clients
// commenting on the same item concurrently can therefore lose one comment
// remotely: the last write wins.
type Store struct {
	remote storage.RemoteStore
	view   CaseView
	writes sync.WaitGroup
}

// New returns a Store over view. A nil remote keeps comments local.
func New(remote storage.RemoteStore, view CaseView) *Store {
	return &Store{remote: remote, view: view}
}

// AddComment appends a comment to the media item evidenceID and starts a
// background write of the item's whole comment list.
func (s *Store) AddComment(ctx context.Context, evidenceID string, author models.Officer, content string) (models.CaseComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.CaseComment{}, ErrEmptyComment
	}

	comment := models.CaseComment{
		ID:         models.NewCommentID(),
		UserID:     author.ID,
		UserName:   author.Name,
		Content:    content,
		Timestamp:  models.Now(),
		EvidenceID: evidenceID,
	}

	var (
		caseID   string
		comments []models.CaseComment
		found    bool
	)
	s.view.Update(func(c *models.Case) {
		media := c.MediaByID(evidenceID)
		if media == nil {
			return
		}
		media.Comments = append(media.Comments, comment)
		comments = slices.Clone(media.Comments)
		caseID = c.ID
		found = true
	})
	if !found {
		return models.CaseComment{}, fmt.Errorf("%w: %s", ErrEvidenceNotFound, evidenceID)
	}

	if s.remote == nil {
		return comment, nil
	}

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.WriteTimeout)
		defer cancel()

		row := models.MediaCommentsRow(caseID, evidenceID, comments)
		if err := s.remote.Upsert(ctx, models.TableMedia, []storage.Row{row}, models.EvidenceKey...); err != nil {
			log.Printf("ERROR: Failed to persist comments on %s in case %s: %v", evidenceID, caseID, err)
		}
	}()
	return comment, nil
}

// Comments returns a copy of the comments on evidenceID.
func (s *Store) Comments(evidenceID string) ([]models.CaseComment, error) {
	var (
		out   []models.CaseComment
		found bool
	)
	s.view.Update(func(c *models.Case) {
		if media := c.MediaByID(evidenceID); media != nil {
			out = slices.Clone(media.Comments)
			found = true
		}
	})
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrEvidenceNotFound, evidenceID)
	}
	return out, nil
}

// Flush waits for every background write started so far.
func (s *Store) Flush() {
	s.writes.Wait()
}
