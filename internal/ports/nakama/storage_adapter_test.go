package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"tabletop/internal/ports"
)

type mockStorage struct {
	writes []*runtime.StorageWrite
	err    error
}

func (m *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.writes = append(m.writes, writes...)
	return make([]*api.StorageObjectAck, len(writes)), nil
}

func TestNakamaResultRecorder(t *testing.T) {
	storage := &mockStorage{}
	recorder := NewNakamaResultRecorder(storage)
	result := ports.MatchResult{
		MatchID:      "match-1",
		Game:         "whist",
		Players:      []string{"alice", "bob"},
		WinnerUserID: "bob",
		Reason:       "win",
		Scores:       map[string]int{"alice": 3, "bob": 7},
		FinishedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := recorder.RecordResult(context.Background(), result); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if len(storage.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(storage.writes))
	}
	w := storage.writes[0]
	if w.Collection != ResultsCollection || !strings.HasPrefix(w.Key, "match-1:") || w.UserID != "" {
		t.Fatalf("unexpected write target: %+v", w)
	}
	if w.PermissionRead != runtime.STORAGE_PERMISSION_PUBLIC_READ || w.PermissionWrite != runtime.STORAGE_PERMISSION_NO_WRITE {
		t.Fatalf("unexpected permissions: read=%d write=%d", w.PermissionRead, w.PermissionWrite)
	}
	var stored ports.MatchResult
	if err := json.Unmarshal([]byte(w.Value), &stored); err != nil {
		t.Fatalf("stored value: %v", err)
	}
	if stored.WinnerUserID != "bob" || stored.Scores["bob"] != 7 || !stored.FinishedAt.Equal(result.FinishedAt) {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestNakamaResultRecorderErrors(t *testing.T) {
	recorder := NewNakamaResultRecorder(&mockStorage{})
	if err := recorder.RecordResult(context.Background(), ports.MatchResult{}); err == nil {
		t.Fatalf("expected an error without a match id")
	}

	failing := NewNakamaResultRecorder(&mockStorage{err: errors.New("db down")})
	if err := failing.RecordResult(context.Background(), ports.MatchResult{MatchID: "m"}); err == nil {
		t.Fatalf("expected the storage error to surface")
	}
}

type mockLister struct {
	objects    []*api.StorageObject
	collection string
	limit      int
}

func (m *mockLister) StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error) {
	m.collection = collection
	m.limit = limit
	return m.objects, "next-page", nil
}

func TestNakamaResultReaderSkipsBadObjects(t *testing.T) {
	lister := &mockLister{objects: []*api.StorageObject{
		{Key: "a", Value: `{"match_id":"m1","winner_user_id":"alice","players":["alice","bob"]}`},
		{Key: "b", Value: `not json`},
		{Key: "c", Value: `{"match_id":"m2","winner_user_id":"bob","players":["bob","carol"]}`},
	}}
	results, cursor, err := NewNakamaResultReader(lister).ListResults(context.Background(), 5, "")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if lister.collection != ResultsCollection || lister.limit != 5 || cursor != "next-page" {
		t.Fatalf("unexpected list call: collection=%s limit=%d cursor=%s", lister.collection, lister.limit, cursor)
	}
	if len(results) != 2 || results[0].MatchID != "m1" || results[1].MatchID != "m2" {
		t.Fatalf("results = %+v", results)
	}
}
