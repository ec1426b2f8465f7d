package domain

import (
	"strings"
	"time"
)

// RecordKind distinguishes file hits from folder hits.
type RecordKind int

const (
	// KindDirectory is a folder hit. Folders sort before files.
	KindDirectory RecordKind = iota

	// KindFile is a file hit.
	KindFile
)

// String returns the string representation.
func (k RecordKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k RecordKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Origin records where in a file the match was found.
type Origin int

const (
	// OriginDirect means the name or the file's own content matched.
	OriginDirect Origin = iota

	// OriginEmailAttachment means only an attachment of an email matched.
	OriginEmailAttachment
)

// String returns the string representation.
func (o Origin) String() string {
	if o == OriginEmailAttachment {
		return "email-attachment"
	}
	return "direct"
}

// MarshalText encodes the origin by name.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// FileRecord is a single search hit.
type FileRecord struct {
	// Kind is file or directory.
	Kind RecordKind `json:"kind"`

	// Name is the base name.
	Name string `json:"name"`

	// Size is the size in bytes (zero for directories).
	Size int64 `json:"size"`

	// Modified is the last modification time.
	Modified time.Time `json:"modified"`

	// Created is the creation time when the platform exposes it,
	// otherwise the modification time.
	Created time.Time `json:"created"`

	// Path is the absolute path.
	Path string `json:"path"`

	// Origin tells whether the hit came from an email attachment.
	Origin Origin `json:"origin"`
}

// Less orders records by kind, then case-insensitive name, then path.
func (r FileRecord) Less(other FileRecord) bool {
	if r.Kind != other.Kind {
		return r.Kind < other.Kind
	}
	a, b := foldName(r.Name), foldName(other.Name)
	if a != b {
		return a < b
	}
	return r.Path < other.Path
}

func foldName(name string) string {
	return strings.ToLower(name)
}
