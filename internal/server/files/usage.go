package files

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
)

// Capacity is the fixed per-user quota: 2 GiB, in bytes.
const Capacity int64 = 2 * 1024 * 1024 * 1024

// CategoryUsage is one bucket of the usage report. Latest is the most recent
// UpdatedAt among the bucket's records, compared as instants; the zero value
// means the bucket is empty and serializes as an empty string.
type CategoryUsage struct {
	Size   int64
	Latest time.Time
}

func (u CategoryUsage) MarshalJSON() ([]byte, error) {
	latest := ""
	if !u.Latest.IsZero() {
		latest = u.Latest.Format(time.RFC3339)
	}
	return json.Marshal(struct {
		Size       int64  `json:"size"`
		LatestDate string `json:"latestDate"`
	}{Size: u.Size, LatestDate: latest})
}

// UsageReport is the per-owner storage summary. The category set is closed,
// so the buckets are plain fields rather than a map.
type UsageReport struct {
	Image    CategoryUsage `json:"image"`
	Document CategoryUsage `json:"document"`
	Video    CategoryUsage `json:"video"`
	Audio    CategoryUsage `json:"audio"`
	Other    CategoryUsage `json:"other"`
	Used     int64         `json:"used"`
	Capacity int64         `json:"capacity"`
}

func (r *UsageReport) bucket(c Category) *CategoryUsage {
	switch c {
	case CategoryImage:
		return &r.Image
	case CategoryDocument:
		return &r.Document
	case CategoryVideo:
		return &r.Video
	case CategoryAudio:
		return &r.Audio
	case CategoryOther:
		return &r.Other
	}
	return nil
}

// BuildUsageReport folds the owner's records into per-category totals. A
// record with a category outside the closed set indicates a corrupted store
// and fails the whole report rather than being dropped silently.
func BuildUsageReport(records []*FileRecord) (*UsageReport, error) {

	report := &UsageReport{Capacity: Capacity}

	for _, record := range records {
		bucket := report.bucket(record.Type)
		if bucket == nil {
			return nil, fmt.Errorf("%w: file %s has type %q", common.ErrUnknownCategory, record.ID, record.Type)
		}

		bucket.Size += record.Size
		report.Used += record.Size

		if bucket.Latest.IsZero() || record.UpdatedAt.After(bucket.Latest) {
			bucket.Latest = record.UpdatedAt
		}
	}

	return report, nil
}
