package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/realtime"
	"tally/internal/services"
	"tally/internal/store"
	"tally/internal/store/memory"
	"tally/internal/store/mocks"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newService(t *testing.T, st store.ExpenseStore, opts ...services.Option) *services.ExpenseService {
	t.Helper()
	base := []services.Option{
		services.WithClock(clock),
		services.WithExporter(export.New(export.WithClock(clock))),
	}
	return services.NewExpenseService(st, applog.New(applog.DefaultConfig()), append(base, opts...)...)
}

func seed(t *testing.T, svc *services.ExpenseService, userID string) {
	t.Helper()
	for _, in := range []core.NewExpense{
		{Amount: 12.50, Category: core.Food, Description: "Lunch", Date: "2024-01-05"},
		{Amount: 40, Category: core.Transport, Description: "Taxi, airport", Date: "2024-01-10"},
		{Amount: 8.25, Category: core.Food, Description: "Coffee beans", Date: "2024-02-02"},
	} {
		_, err := svc.Create(context.Background(), userID, in)
		require.NoError(t, err)
	}
}

func TestExpenseService_CRUDPublishesEvents(t *testing.T) {
	ctx := context.Background()
	hub := realtime.NewHub()
	sub := hub.Subscribe("u1")
	defer sub.Close()

	svc := newService(t, memory.New(), services.WithPublisher(hub))

	created, err := svc.Create(ctx, "u1", core.NewExpense{Amount: 12.5, Category: core.Food, Description: "Lunch", Date: "2024-01-05"})
	require.NoError(t, err)

	desc := "Team lunch"
	updated, err := svc.Update(ctx, "u1", created.ID, core.ExpensePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	require.NoError(t, svc.Delete(ctx, "u1", created.ID))

	var types []realtime.EventType
	for i := 0; i < 3; i++ {
		ev := <-sub.Events()
		assert.Equal(t, created.ID, ev.ExpenseID)
		assert.Equal(t, fixedNow, ev.At)
		types = append(types, ev.Type)
	}
	assert.Equal(t, []realtime.EventType{realtime.Insert, realtime.Update, realtime.Delete}, types)

	_, err = svc.Get(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExpenseService_UpdateRejectsEmptyPatch(t *testing.T) {
	svc := newService(t, memory.New())
	_, err := svc.Update(context.Background(), "u1", "x", core.ExpensePatch{})
	assert.ErrorIs(t, err, services.ErrEmptyPatch)
}

func TestExpenseService_ListFiltersAndIsolatesUsers(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New())
	seed(t, svc, "u1")
	seed(t, svc, "u2")

	all, err := svc.List(ctx, "u1", core.FilterOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Coffee beans", all[0].Description)

	food, err := svc.List(ctx, "u1", core.FilterOptions{Category: "food", StartDate: "2024-01-06"})
	require.NoError(t, err)
	require.Len(t, food, 1)
	assert.Equal(t, "Coffee beans", food[0].Description)

	none, err := svc.List(ctx, "nobody", core.FilterOptions{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExpenseService_CacheIsPatchedOnWrite(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockExpenseStore(ctrl)
	lists := cache.NewLRUCache[[]core.Expense](8, time.Hour)
	svc := newService(t, st, services.WithListCache(lists))

	existing := core.Expense{ID: "a", Amount: 5, Category: core.Food, Description: "Bagel", Date: "2024-01-01"}
	st.EXPECT().List(gomock.Any(), "u1").Return([]core.Expense{existing}, nil).Times(1)

	first, err := svc.List(ctx, "u1", core.FilterOptions{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	created := core.Expense{ID: "b", Amount: 7, Category: core.Health, Description: "Vitamins", Date: "2024-01-03"}
	st.EXPECT().Create(gomock.Any(), "u1", gomock.Any()).Return(created, nil)
	_, err = svc.Create(ctx, "u1", core.NewExpense{Amount: 7, Category: core.Health, Description: "Vitamins", Date: "2024-01-03"})
	require.NoError(t, err)

	st.EXPECT().Delete(gomock.Any(), "u1", "a").Return(existing, nil)
	require.NoError(t, svc.Delete(ctx, "u1", "a"))

	// Served from the patched cache: List on the store was expected once.
	second, err := svc.List(ctx, "u1", core.FilterOptions{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "b", second[0].ID)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishChange(context.Context, realtime.ChangeEvent) error {
	f.calls++
	return errors.New("broker unavailable")
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &failingPublisher{}
	svc := newService(t, memory.New(), services.WithPublisher(pub))

	_, err := svc.Create(context.Background(), "u1", core.NewExpense{Amount: 1, Category: core.Other, Description: "x", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
}

func TestExpenseService_StoreErrorsAreWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockExpenseStore(ctrl)
	pub := &failingPublisher{}
	svc := newService(t, st, services.WithPublisher(pub))

	st.EXPECT().Delete(gomock.Any(), "u1", "missing").Return(core.Expense{}, store.ErrNotFound)
	err := svc.Delete(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, pub.calls, "no event for failed writes")

	st.EXPECT().List(gomock.Any(), "u1").Return(nil, errors.New("disk full"))
	_, err = svc.Export(context.Background(), "u1", core.FilterOptions{}, export.Options{Format: export.FormatCSV})
	assert.ErrorContains(t, err, "list expenses: disk full")
}

func TestExpenseService_Summarize(t *testing.T) {
	svc := newService(t, memory.New())
	seed(t, svc, "u1")

	s, err := svc.Summarize(context.Background(), "u1", core.FilterOptions{Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalCount)
	assert.InDelta(t, 20.75, s.TotalAmount, 1e-9)
	assert.Equal(t, "Jan 5, 2024", s.DateRange.Start)
	assert.Equal(t, "Feb 2, 2024", s.DateRange.End)
}

func TestExpenseService_Export(t *testing.T) {
	svc := newService(t, memory.New())
	seed(t, svc, "u1")

	res, err := svc.Export(context.Background(), "u1", core.FilterOptions{MinAmount: 10}, export.Options{Format: export.FormatJSON})
	require.NoError(t, err)
	assert.Equal(t, "expense-report-2024-03-01.json", res.FileName)
	assert.Equal(t, "application/json", res.MimeType)

	var doc struct {
		Metadata struct {
			TotalExpenses int `json:"totalExpenses"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Body), &doc))
	assert.Equal(t, 2, doc.Metadata.TotalExpenses)

	csv, err := svc.Export(context.Background(), "u1", core.FilterOptions{}, export.Options{Format: export.FormatCSV, IncludeHeaders: export.Bool(false)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(csv.Body, "Date,Description,Category,Amount\n"))
	assert.Equal(t, "text/csv", csv.MimeType)

	_, err = svc.Export(context.Background(), "u1", core.FilterOptions{}, export.Options{Format: "xml"})
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestExpenseService_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockExpenseStore(ctrl)
	st.EXPECT().Close().Return(errors.New("busy"))
	svc := newService(t, st)
	assert.ErrorContains(t, svc.Close(), "close expense service: busy")

	assert.NoError(t, services.NewExpenseService(nil, applog.New(applog.DefaultConfig())).Close())
}
