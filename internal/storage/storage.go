package storage

import (
	"context"
	"io"
	"strings"
)

// ResourceType is the category a stored object was filed under. Deleting an
// object must name the same category it was uploaded with.
type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
	ResourceRaw   ResourceType = "raw"
)

// ResourceTypes lists every category in a stable order.
var ResourceTypes = []ResourceType{ResourceImage, ResourceVideo, ResourceRaw}

// Per-id outcomes reported by DeleteBatch.
const (
	StatusDeleted  = "deleted"
	StatusNotFound = "not_found"
)

// ClassifyMime maps a MIME type to the resource category its object is stored
// under. Anything that is not image/* or video/*, including an empty or
// malformed value, is Raw.
func ClassifyMime(mime string) ResourceType {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(m, "image/"):
		return ResourceImage
	case strings.HasPrefix(m, "video/"):
		return ResourceVideo
	default:
		return ResourceRaw
	}
}

// ParseResourceType converts a stored resource type name back to the enum.
// Unknown names fall back to Raw.
func ParseResourceType(s string) ResourceType {
	switch ResourceType(s) {
	case ResourceImage, ResourceVideo:
		return ResourceType(s)
	default:
		return ResourceRaw
	}
}

type UploadResult struct {
	SecureURL    string
	PublicID     string
	ResourceType ResourceType
}

// BlobStore is the external object store holding uploaded file bytes.
type BlobStore interface {
	// Upload stores body under folderPath/publicID. The resource type is
	// derived from contentType.
	Upload(ctx context.Context, body io.Reader, folderPath, publicID, contentType string) (*UploadResult, error)

	// DeleteBatch removes the given public ids, all of which must have been
	// stored as rt. It returns a status per id; a non-nil error means the
	// provider call itself failed.
	DeleteBatch(ctx context.Context, publicIDs []string, rt ResourceType, invalidate bool) (map[string]string, error)
}
