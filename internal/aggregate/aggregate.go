// Package aggregate folds the flat guitar/photo/user join into nested guitar views.
package aggregate

import (
	"fmt"
	"strings"

	"guitar-service/internal/model"
)

// PhotoURLFunc derives the public URL a client uses to fetch a photo.
type PhotoURLFunc func(photoID int64) string

// PhotoURL returns a PhotoURLFunc serving photos from baseURL/photos/{id}.
func PhotoURL(baseURL string) PhotoURLFunc {
	base := strings.TrimRight(baseURL, "/")
	return func(photoID int64) string {
		return fmt.Sprintf("%s/photos/%d", base, photoID)
	}
}

// Fold groups rows by guitar id in first-seen order. Rows for the same guitar
// append to its photo list; rows with a null photo id add nothing, so a guitar
// without photos gets an empty list. The result is never nil.
func Fold(rows []model.GuitarRow, photoURL PhotoURLFunc) []model.GuitarView {
	order := make([]int64, 0, len(rows))
	byID := make(map[int64]*model.GuitarView, len(rows))

	for _, row := range rows {
		view, seen := byID[row.GuitarID]
		if !seen {
			view = newView(row)
			byID[row.GuitarID] = view
			order = append(order, row.GuitarID)
		}

		if row.PhotoID.Valid {
			view.Photos = append(view.Photos, model.PhotoView{
				PhotoID: row.PhotoID.Int64,
				URL:     photoURL(row.PhotoID.Int64),
				Caption: row.Caption.String,
			})
		}
	}

	views := make([]model.GuitarView, 0, len(order))
	for _, id := range order {
		views = append(views, *byID[id])
	}

	return views
}

func newView(row model.GuitarRow) *model.GuitarView {
	return &model.GuitarView{
		GuitarID:     row.GuitarID,
		Brand:        row.Brand,
		Model:        row.Model,
		Year:         row.Year,
		SerialNumber: row.SerialNumber.String,
		Genre:        row.Genre.String,
		BodyType:     row.BodyType.String,
		LastModified: row.LastModified,
		Photos:       []model.PhotoView{},
		User: model.OwnerView{
			UserID:   row.UserID,
			Username: row.Username,
		},
	}
}
