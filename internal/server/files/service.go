package files

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/logging"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/blob"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/users"
)

// Service ties the metadata repository and the blob store together. Writes
// that span both are sagas: the second step failing triggers a compensating
// delete of the first, never a half-written pair.
type Service struct {
	repo    Repository
	storage blob.Storage
	logger  logging.Logger
}

func NewService(repo Repository, storage blob.Storage, logger logging.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		logger:  logger.With("module", "files_service"),
	}
}

// Visible reports whether the record may be read by the user: the owner, or
// anyone the record was shared with. Never narrowed to one branch.
func Visible(user *users.User, record *FileRecord) bool {
	return record.OwnerID == user.ID || record.SharedWithEmail(user.Email)
}

// Upload stores the blob first, then persists the metadata record. When the
// metadata write fails the blob is deleted again, so no orphaned object
// survives a failed upload.
func (s *Service) Upload(ctx context.Context, owner *users.User, name string, content io.Reader, size int64) (*FileRecord, error) {

	ext, category := SplitName(name)
	key := blob.RandomStorageKey()

	if err := s.storage.Put(ctx, key, content, size); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	record := &FileRecord{
		Name:         name,
		Extension:    ext,
		Type:         category,
		Size:         size,
		URL:          s.storage.FileURL(key),
		BucketFileID: key,
		OwnerID:      owner.ID,
		SharedWith:   []string{},
	}

	record, err := s.repo.Create(ctx, record)
	if err != nil {
		// compensating action: the blob must not outlive the failed metadata write
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error(ctx, "compensating blob delete failed", "key", key, "error", delErr.Error())
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	return record, nil
}

// Delete removes the record first and the blob second. A blob that survives
// a successful metadata delete is tolerable; metadata pointing at a missing
// blob is not, hence the order.
func (s *Service) Delete(ctx context.Context, user *users.User, fileID string) error {

	record, err := s.ownedRecord(ctx, user, fileID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, fileID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	if err := s.storage.Delete(ctx, record.BucketFileID); err != nil {
		s.logger.Warn(ctx, "blob delete failed after metadata delete", "key", record.BucketFileID, "error", err.Error())
	}

	return nil
}

// Rename changes the display name; the extension from the original upload is
// preserved.
func (s *Service) Rename(ctx context.Context, user *users.User, fileID string, newName string) error {

	record, err := s.ownedRecord(ctx, user, fileID)
	if err != nil {
		return err
	}

	name := newName
	if record.Extension != "" {
		name = newName + "." + record.Extension
	}

	if err := s.repo.Rename(ctx, fileID, name); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	return nil
}

// Share replaces the record's shared-with email list.
func (s *Service) Share(ctx context.Context, user *users.User, fileID string, emails []string) error {

	if _, err := s.ownedRecord(ctx, user, fileID); err != nil {
		return err
	}

	if err := s.repo.UpdateSharedWith(ctx, fileID, emails); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	return nil
}

// Get fetches one record the user is allowed to see. Records that exist but
// are not visible to the user are reported as not found.
func (s *Service) Get(ctx context.Context, user *users.User, fileID string) (*FileRecord, error) {

	record, err := s.repo.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	if !Visible(user, record) {
		return nil, common.ErrorNotFound
	}

	return record, nil
}

// List executes a catalog listing for the user.
func (s *Service) List(ctx context.Context, user *users.User, opts ListOptions) ([]*FileRecord, error) {

	q := BuildListQuery(user, opts)

	records, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	return records, nil
}

// DownloadURL returns a short-lived URL for the raw object.
func (s *Service) DownloadURL(ctx context.Context, user *users.User, fileID string) (string, error) {

	record, err := s.Get(ctx, user, fileID)
	if err != nil {
		return "", err
	}

	url, err := s.storage.PresignGet(ctx, record.BucketFileID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	return url, nil
}

// Usage computes the owner's storage report, fresh on every call.
func (s *Service) Usage(ctx context.Context, ownerID string) (*UsageReport, error) {

	records, err := s.repo.ListOwned(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	return BuildUsageReport(records)
}

func (s *Service) ownedRecord(ctx context.Context, user *users.User, fileID string) (*FileRecord, error) {

	record, err := s.repo.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	if record.OwnerID != user.ID {
		return nil, common.ErrorForbidden
	}

	return record, nil
}
