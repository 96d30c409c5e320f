package firestore

import (
	"time"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type layoutDoc struct {
	ID        string      `firestore:"id"`
	UserID    string      `firestore:"userId"`
	Widgets   []widgetDoc `firestore:"widgets"`
	CreatedAt time.Time   `firestore:"createdAt"`
	UpdatedAt time.Time   `firestore:"updatedAt"`
}

type widgetDoc struct {
	ID        string `firestore:"id"`
	Type      string `firestore:"type"`
	X         int    `firestore:"x"`
	Y         int    `firestore:"y"`
	W         int    `firestore:"w"`
	H         int    `firestore:"h"`
	StartDate string `firestore:"startDate,omitempty"`
	EndDate   string `firestore:"endDate,omitempty"`
}

func fromWidgets(widgets []dashboard.Widget) []widgetDoc {
	out := make([]widgetDoc, len(widgets))
	for i, w := range widgets {
		out[i] = widgetDoc{
			ID:   w.ID,
			Type: string(w.Type),
			X:    w.Position.X,
			Y:    w.Position.Y,
			W:    w.Position.W,
			H:    w.Position.H,
		}
		if w.Config != nil {
			out[i].StartDate, out[i].EndDate = w.Config.StartDate, w.Config.EndDate
		}
	}
	return out
}

func (d layoutDoc) toLayout() dashboard.Layout {
	widgets := make([]dashboard.Widget, len(d.Widgets))
	for i, w := range d.Widgets {
		widgets[i] = dashboard.Widget{
			ID:       w.ID,
			Type:     dashboard.WidgetKind(w.Type),
			Position: dashboard.WidgetPosition{X: w.X, Y: w.Y, W: w.W, H: w.H},
		}
		if w.StartDate != "" || w.EndDate != "" {
			widgets[i].Config = &dashboard.WidgetConfig{StartDate: w.StartDate, EndDate: w.EndDate}
		}
	}
	layout := dashboard.Layout{ID: d.ID, UserID: d.UserID, Widgets: widgets}
	if !d.CreatedAt.IsZero() {
		created := d.CreatedAt
		layout.CreatedAt = &created
	}
	if !d.UpdatedAt.IsZero() {
		updated := d.UpdatedAt
		layout.UpdatedAt = &updated
	}
	return layout
}
