package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/realtime"
)

type fakeMirror struct {
	upserts []string
	deletes []string
	err     error
}

func (f *fakeMirror) UpsertRow(_ context.Context, userID string, e core.Expense) error {
	f.upserts = append(f.upserts, userID+"/"+e.ID)
	return f.err
}

func (f *fakeMirror) DeleteRow(_ context.Context, userID, expenseID string) error {
	f.deletes = append(f.deletes, userID+"/"+expenseID)
	return f.err
}

func TestMirrorWorker_HandleChange(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e := core.Expense{ID: "e1", Amount: 3, Category: core.Food, Description: "Bagel", Date: "2024-02-29"}

	tests := []struct {
		name        string
		ev          realtime.ChangeEvent
		mirrorErr   error
		wantUpserts int
		wantDeletes int
		wantErr     bool
	}{
		{name: "insert upserts", ev: realtime.NewEvent(realtime.Insert, "u1", e, at), wantUpserts: 1},
		{name: "update upserts", ev: realtime.NewEvent(realtime.Update, "u1", e, at), wantUpserts: 1},
		{name: "delete clears", ev: realtime.NewEvent(realtime.Delete, "u1", e, at), wantDeletes: 1},
		{name: "mirror failure is returned", ev: realtime.NewEvent(realtime.Insert, "u1", e, at), mirrorErr: errors.New("quota"), wantUpserts: 1, wantErr: true},
		{name: "invalid event is skipped", ev: realtime.ChangeEvent{Type: realtime.Insert, UserID: "u1", ExpenseID: "e1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMirror{err: tt.mirrorErr}
			w := NewMirrorWorker(m, nil, applog.New(applog.DefaultConfig()))

			err := w.HandleChange(context.Background(), tt.ev)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleChange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(m.upserts) != tt.wantUpserts || len(m.deletes) != tt.wantDeletes {
				t.Fatalf("upserts=%v deletes=%v", m.upserts, m.deletes)
			}
			if tt.wantUpserts == 1 && m.upserts[0] != "u1/e1" {
				t.Fatalf("unexpected upsert target %v", m.upserts)
			}
		})
	}
}
