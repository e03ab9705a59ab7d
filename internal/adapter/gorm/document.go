package gorm

import (
	"net/url"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/pkg/errors"
)

type CachedDocument struct {
	ID        string `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time

	Title    string
	Source   string
	MimeType string

	Size    int64  `gorm:"not null"`
	Payload []byte `gorm:"not null"`
}

type wrappedDocument struct {
	d *CachedDocument
}

// ID implements model.PersistedDocument.
func (w *wrappedDocument) ID() model.DocumentID {
	return model.DocumentID(w.d.ID)
}

// Title implements model.PersistedDocument.
func (w *wrappedDocument) Title() string {
	return w.d.Title
}

// Source implements model.PersistedDocument.
func (w *wrappedDocument) Source() *url.URL {
	if w.d.Source == "" {
		return nil
	}

	url, err := url.Parse(w.d.Source)
	if err != nil {
		panic(errors.WithStack(err))
	}

	return url
}

// MimeType implements model.PersistedDocument.
func (w *wrappedDocument) MimeType() string {
	return w.d.MimeType
}

// Size implements model.PersistedDocument.
func (w *wrappedDocument) Size() int64 {
	return w.d.Size
}

// CachedAt implements model.PersistedDocument.
func (w *wrappedDocument) CachedAt() time.Time {
	return w.d.CreatedAt
}

// Payload implements model.PersistedDocument.
func (w *wrappedDocument) Payload() []byte {
	return w.d.Payload
}

var _ model.PersistedDocument = &wrappedDocument{}

func fromDocument(d model.PayloadDocument) *CachedDocument {
	document := &CachedDocument{
		ID:       string(d.ID()),
		Title:    d.Title(),
		MimeType: d.MimeType(),
		Payload:  d.Payload(),
		Size:     int64(len(d.Payload())),
	}

	if source := d.Source(); source != nil {
		document.Source = source.String()
	}

	return document
}
