package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Archive publishes finished artifacts to a remote sink. Uploads are
// best-effort: callers log failures and continue (the local workspace
// remains the source of truth).
type Archive interface {
	// Upload writes data to the archive at the given key with the specified content type.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewArchive creates an Azure Blob archive from the given configuration.
// The container is created lazily on first upload.
func NewArchive(cfg *ArchiveConfig, logger *slog.Logger) (Archive, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "archive"),
	}, nil
}

func (a *azure) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := a.ensureContainer(ctx); err != nil {
		return err
	}

	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	if _, err := a.client.UploadBuffer(ctx, a.container, key, data, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	a.logger.Info("artifact archived", "container", a.container, "key", key)
	return nil
}

func (a *azure) ensureContainer(ctx context.Context) error {
	a.ensureOnce.Do(func() {
		_, err := a.client.CreateContainer(ctx, a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.ensureErr = fmt.Errorf("create archive container %s: %w", a.container, err)
			return
		}

		a.logger.Info("archive container ready", "container", a.container)
	})

	return a.ensureErr
}
