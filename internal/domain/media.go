package domain

import (
	"path/filepath"
	"strings"
)

// RequestID is a unique identifier for one inbound media request.
type RequestID string

// String returns the string representation of the RequestID.
func (id RequestID) String() string {
	return string(id)
}

// MediaKind classifies a produced media file.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindImage MediaKind = "image"
)

// KindForPath classifies a file by its suffix. Files with unknown suffixes
// are not errors; they are simply excluded from all downstream batches.
func KindForPath(path string) (MediaKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return KindVideo, true
	case ".jpg", ".jpeg", ".png":
		return KindImage, true
	default:
		return "", false
	}
}

// MediaItem is one local media file produced by extraction.
// Path always lies inside the workspace of the request that produced it.
type MediaItem struct {
	Path      string
	Kind      MediaKind
	SizeBytes int64
	// DurationSeconds is only measured for videos; 0 means not measured.
	DurationSeconds float64
}

// ExtractResult is the tagged outcome of an extraction run: either a single
// video from the primary extractor or a list of files from the fallback.
// Consumers use List and never branch on the underlying shape.
type ExtractResult struct {
	Single *MediaItem
	Items  []MediaItem
}

// SingleResult wraps one item produced by the primary extractor.
func SingleResult(item MediaItem) ExtractResult {
	return ExtractResult{Single: &item}
}

// ManyResult wraps the file list produced by the fallback extractor.
func ManyResult(items []MediaItem) ExtractResult {
	return ExtractResult{Items: items}
}

// List returns the items in discovery order regardless of shape.
func (r ExtractResult) List() []MediaItem {
	if r.Single != nil {
		return []MediaItem{*r.Single}
	}
	return r.Items
}

// Batch is an ordered same-kind group of media items sized to fit the
// delivery sink's per-message limits.
type Batch struct {
	Kind  MediaKind
	Items []MediaItem
}

// DispatchStatus describes the outcome of sending one batch.
type DispatchStatus string

const (
	// StatusDelivered means the sink accepted the batch (or at least did not
	// report a hard error; soft timeouts count as delivered).
	StatusDelivered DispatchStatus = "delivered"
	// StatusFailed means the sink reported a hard transport error.
	StatusFailed DispatchStatus = "failed"
)

// DispatchOutcome is the per-batch dispatch result.
type DispatchOutcome struct {
	Status DispatchStatus
	Err    error
}
