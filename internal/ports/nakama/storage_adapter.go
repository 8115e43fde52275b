package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/ports"
)

// storageWriter is the slice of runtime.NakamaModule the result recorder needs.
type storageWriter interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// storageLister is the slice of runtime.NakamaModule the result reader needs.
type storageLister interface {
	StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error)
}

// NakamaResultRecorder implements ports.ResultRecorder with Nakama storage.
// Results are system-owned and publicly readable.
type NakamaResultRecorder struct {
	nk storageWriter
}

// NewNakamaResultRecorder creates a new result recorder.
func NewNakamaResultRecorder(nk storageWriter) *NakamaResultRecorder {
	return &NakamaResultRecorder{nk: nk}
}

// RecordResult writes one storage object keyed by match id and finish time.
func (a *NakamaResultRecorder) RecordResult(ctx context.Context, result ports.MatchResult) error {
	if result.MatchID == "" {
		return fmt.Errorf("match id is required")
	}
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}

	writes := []*runtime.StorageWrite{
		{
			Collection:      ResultsCollection,
			Key:             result.MatchID + ":" + strconv.FormatInt(result.FinishedAt.UnixNano(), 10),
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_PUBLIC_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}
	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to store match result: %w", err)
	}
	return nil
}

// NakamaResultReader implements ports.ResultReader with Nakama storage.
type NakamaResultReader struct {
	nk storageLister
}

// NewNakamaResultReader creates a new result reader.
func NewNakamaResultReader(nk storageLister) *NakamaResultReader {
	return &NakamaResultReader{nk: nk}
}

// ListResults reads one page of the results collection. Objects that do not
// decode are skipped.
func (a *NakamaResultReader) ListResults(ctx context.Context, limit int, cursor string) ([]ports.MatchResult, string, error) {
	objects, next, err := a.nk.StorageList(ctx, "", "", ResultsCollection, limit, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list match results: %w", err)
	}
	results := make([]ports.MatchResult, 0, len(objects))
	for _, obj := range objects {
		var r ports.MatchResult
		if err := json.Unmarshal([]byte(obj.GetValue()), &r); err != nil {
			continue
		}
		results = append(results, r)
	}
	return results, next, nil
}

var (
	_ ports.ResultRecorder = (*NakamaResultRecorder)(nil)
	_ ports.ResultReader   = (*NakamaResultReader)(nil)
)
