package asset

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a resource.
type Kind string

const (
	KindModel    Kind = "model"
	KindMaterial Kind = "material"
	KindTexture  Kind = "texture"
)

// Kinds lists every resource kind in export order.
var Kinds = []Kind{KindModel, KindMaterial, KindTexture}

// ParseKind converts a case-insensitive name (singular or plural) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "model":
		return KindModel, nil
	case "material":
		return KindMaterial, nil
	case "texture":
		return KindTexture, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
}

// UploadStatus is the live upload state of a resource.
// The zero value means "absent".
type UploadStatus string

const (
	StatusNone     UploadStatus = ""
	StatusUploaded UploadStatus = "uploaded"
	StatusError    UploadStatus = "error"
)

// Ref identifies a single resource.
type Ref struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

// String returns "kind:id".
func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
