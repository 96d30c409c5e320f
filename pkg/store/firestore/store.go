// Package firestore persists dashboard layouts in Cloud Firestore, one
// document per user under the dashboard_layouts collection.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// Collection holds one document per user keyed by user id.
const Collection = "dashboard_layouts"

// Store implements dashboard.LayoutStore on Firestore.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

var _ dashboard.LayoutStore = (*Store)(nil)

// New wraps an initialized Firestore client.
func New(client *firestore.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// Open creates a client for projectID. FIRESTORE_EMULATOR_HOST is honored
// by the SDK.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return New(client), nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(Collection).Doc(userID)
}

// LoadLayout implements dashboard.LayoutStore.
func (s *Store) LoadLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, bool, error) {
	snap, err := s.doc(viewer.UserID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return dashboard.Layout{}, false, nil
		}
		return dashboard.Layout{}, false, fmt.Errorf("get layout: %w", err)
	}
	var doc layoutDoc
	if err := snap.DataTo(&doc); err != nil {
		return dashboard.Layout{}, false, fmt.Errorf("parse layout: %w", err)
	}
	return doc.toLayout(), true, nil
}

// SaveLayout implements dashboard.LayoutStore. The document id and creation
// time survive overwrites.
func (s *Store) SaveLayout(ctx context.Context, viewer dashboard.ViewerContext, widgets []dashboard.Widget) error {
	ref := s.doc(viewer.UserID)
	now := s.now().UTC()
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc := layoutDoc{ID: uuid.NewString(), UserID: viewer.UserID, CreatedAt: now}
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing layoutDoc
			if err := snap.DataTo(&existing); err == nil {
				doc.ID, doc.CreatedAt = existing.ID, existing.CreatedAt
			}
		case status.Code(err) != codes.NotFound:
			return err
		}
		doc.Widgets = fromWidgets(widgets)
		doc.UpdatedAt = now
		return tx.Set(ref, doc)
	})
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}
