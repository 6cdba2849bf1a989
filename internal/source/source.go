// Package source implements spec.md §6's pluggable Source adapter
// interface: discover/count/fetch/validate against a document source. The
// folder adapter is the one required implementation; bucket/S3/Drive/
// OneDrive/DB adapters are stubs behind the same interface, since this
// module has no credentials to drive them end-to-end, and spec.md marks
// all but the folder adapter optional.
package source

import (
	"context"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

// Config carries the address/credentials a given adapter needs. Only the
// fields a particular adapter reads are populated by the caller; unused
// fields are the stub adapters' signal that they are unconfigured.
type Config struct {
	FolderRoot string

	BucketName   string
	BucketPrefix string
	BucketRegion string

	S3Bucket string
	S3Prefix string
	S3Region string

	DriveFolderID string

	OneDriveFolderPath string

	DBQuery          string
	DBConnectionName string
}

// Adapter is spec.md §6's source adapter interface.
type Adapter interface {
	// Discover lists up to batchSize candidate documents.
	Discover(ctx context.Context, cfg Config, batchSize int) ([]domain.DocumentInfo, error)
	// Count returns the total number of candidate documents, capped at max
	// when max > 0.
	Count(ctx context.Context, cfg Config, max int) (int, error)
	// Fetch retrieves one document's bytes by its opaque source path.
	Fetch(ctx context.Context, sourcePath string) ([]byte, error)
	// Validate reports whether cfg is usable by this adapter.
	Validate(cfg Config) bool
}

// Name identifies a registered adapter kind.
type Name string

const (
	NameFolder   Name = "folder"
	NameBucket   Name = "bucket"
	NameS3       Name = "s3"
	NameDrive    Name = "google_drive"
	NameOneDrive Name = "onedrive"
	NameDatabase Name = "database"
)

// Registry resolves an adapter identifier to its implementation (spec.md
// §9: module-level singletons are acceptable for read-only registries).
type Registry struct {
	adapters map[Name]Adapter
}

// NewRegistry wires every known adapter (spec.md §6's "known adapters"
// list); all but folder are optional stubs that report Validate() == false
// until configured with real credentials.
func NewRegistry(folderRoot string) *Registry {
	return &Registry{
		adapters: map[Name]Adapter{
			NameFolder:   NewFolderAdapter(folderRoot),
			NameBucket:   NewBucketAdapter(),
			NameS3:       NewS3Adapter(),
			NameDrive:    NewDriveAdapter(),
			NameOneDrive: NewOneDriveAdapter(),
			NameDatabase: NewDatabaseAdapter(),
		},
	}
}

// Resolve returns the adapter registered under name, or nil if unknown.
func (r *Registry) Resolve(name Name) Adapter {
	return r.adapters[name]
}
