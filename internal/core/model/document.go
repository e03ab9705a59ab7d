package model

import (
	"net/url"
	"time"
)

// DocumentID is the caller supplied identity of a cached document.
type DocumentID string

type Document interface {
	ID() DocumentID
	Title() string
	Source() *url.URL
	MimeType() string
	Size() int64
}

// PayloadDocument is a document carrying its full binary content.
type PayloadDocument interface {
	Document
	Payload() []byte
}

type CachedDocument interface {
	Document
	CachedAt() time.Time
}

type PersistedDocument interface {
	CachedDocument
	Payload() []byte
}

type BaseDocument struct {
	id       DocumentID
	title    string
	source   *url.URL
	mimeType string
	payload  []byte
}

// ID implements PayloadDocument.
func (d *BaseDocument) ID() DocumentID {
	return d.id
}

// Title implements PayloadDocument.
func (d *BaseDocument) Title() string {
	return d.title
}

// Source implements PayloadDocument.
func (d *BaseDocument) Source() *url.URL {
	return d.source
}

// MimeType implements PayloadDocument.
func (d *BaseDocument) MimeType() string {
	return d.mimeType
}

// Size implements PayloadDocument.
func (d *BaseDocument) Size() int64 {
	return int64(len(d.payload))
}

// Payload implements PayloadDocument.
func (d *BaseDocument) Payload() []byte {
	return d.payload
}

var _ PayloadDocument = &BaseDocument{}

func NewDocument(id DocumentID, title string, source *url.URL, mimeType string, payload []byte) *BaseDocument {
	return &BaseDocument{
		id:       id,
		title:    title,
		source:   source,
		mimeType: mimeType,
		payload:  payload,
	}
}

// CacheUsage summarizes the content of the document cache.
type CacheUsage struct {
	Count     int64
	TotalSize int64
}
