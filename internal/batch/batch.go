// Package batch partitions accepted media into groups that fit the delivery
// sink's per-message limits.
package batch

import "github.com/dkostiuk/clipferry/internal/domain"

// Hard remote-platform ceilings, not tunable.
const (
	MaxVideosPerGroup = 2
	MaxImagesPerGroup = 10
)

// Split partitions items into same-kind batches: videos in chunks of at most
// two, images in chunks of at most ten. Videos dispatch before images;
// within a kind the discovery order is preserved. A remainder chunk is kept,
// never dropped.
func Split(items []domain.MediaItem) []domain.Batch {
	var videos, images []domain.MediaItem
	for _, item := range items {
		switch item.Kind {
		case domain.KindVideo:
			videos = append(videos, item)
		case domain.KindImage:
			images = append(images, item)
		}
	}

	batches := chunk(videos, domain.KindVideo, MaxVideosPerGroup)
	return append(batches, chunk(images, domain.KindImage, MaxImagesPerGroup)...)
}

func chunk(items []domain.MediaItem, kind domain.MediaKind, size int) []domain.Batch {
	var batches []domain.Batch
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, domain.Batch{
			Kind:  kind,
			Items: items[start:end],
		})
	}
	return batches
}
