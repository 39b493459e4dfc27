package table

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newApplierFixture(t *testing.T) (*Controller[testRecord], *Applier[testRecord]) {
	t.Helper()
	ctrl := newTestController(staticFetcher([]testRecord{
		{ID: "a", Name: "Alice", Rank: 1},
		{ID: "b", Name: "Bob", Rank: 2},
	}, 2))
	assert.NoError(t, ctrl.SetParams(context.Background(), ParamPatch{}))

	applier := NewApplier(ctrl, map[string]FieldAccess[testRecord]{
		"name": {
			Get: func(r testRecord) interface{} { return r.Name },
			Set: func(r *testRecord, v interface{}) { r.Name = v.(string) },
		},
		"rank": {
			Get: func(r testRecord) interface{} { return r.Rank },
			Set: func(r *testRecord, v interface{}) { r.Rank = v.(int) },
		},
	})
	return ctrl, applier
}

func TestApplyFieldEdit(t *testing.T) {
	t.Run("remote success keeps optimistic value", func(t *testing.T) {
		ctrl, applier := newApplierFixture(t)

		err := applier.ApplyFieldEdit(context.Background(), "a", "name", "Alicia",
			func(ctx context.Context, key, field string, value interface{}) error {
				// The local write is already visible when the remote call runs
				r, ok := ctrl.Get("a")
				assert.True(t, ok)
				assert.Equal(t, "Alicia", r.Name)
				return nil
			})

		assert.NoError(t, err)
		r, _ := ctrl.Get("a")
		assert.Equal(t, "Alicia", r.Name)
	})

	t.Run("remote failure rolls the cell back", func(t *testing.T) {
		ctrl, applier := newApplierFixture(t)

		remoteErr := errors.New("update rejected")
		err := applier.ApplyFieldEdit(context.Background(), "a", "name", "Alicia",
			func(ctx context.Context, key, field string, value interface{}) error {
				return remoteErr
			})

		assert.ErrorIs(t, err, remoteErr)
		r, _ := ctrl.Get("a")
		assert.Equal(t, "Alice", r.Name)
	})

	t.Run("failure never touches other fields or rows", func(t *testing.T) {
		ctrl, applier := newApplierFixture(t)

		_ = applier.ApplyFieldEdit(context.Background(), "a", "rank", 9,
			func(ctx context.Context, key, field string, value interface{}) error {
				return errors.New("boom")
			})

		a, _ := ctrl.Get("a")
		b, _ := ctrl.Get("b")
		assert.Equal(t, testRecord{ID: "a", Name: "Alice", Rank: 1}, a)
		assert.Equal(t, testRecord{ID: "b", Name: "Bob", Rank: 2}, b)
	})

	t.Run("second edit of the same cell is rejected while in flight", func(t *testing.T) {
		_, applier := newApplierFixture(t)

		entered := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = applier.ApplyFieldEdit(context.Background(), "a", "name", "first",
				func(ctx context.Context, key, field string, value interface{}) error {
					close(entered)
					<-release
					return nil
				})
		}()

		<-entered
		err := applier.ApplyFieldEdit(context.Background(), "a", "name", "second",
			func(ctx context.Context, key, field string, value interface{}) error {
				return nil
			})
		assert.ErrorIs(t, err, ErrEditInFlight)

		close(release)
		wg.Wait()
	})

	t.Run("different cells edit concurrently", func(t *testing.T) {
		_, applier := newApplierFixture(t)

		entered := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = applier.ApplyFieldEdit(context.Background(), "a", "name", "x",
				func(ctx context.Context, key, field string, value interface{}) error {
					close(entered)
					<-release
					return nil
				})
		}()

		<-entered
		err := applier.ApplyFieldEdit(context.Background(), "b", "name", "y",
			func(ctx context.Context, key, field string, value interface{}) error {
				return nil
			})
		assert.NoError(t, err)

		close(release)
		wg.Wait()
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, applier := newApplierFixture(t)
		err := applier.ApplyFieldEdit(context.Background(), "a", "bogus", 1,
			func(ctx context.Context, key, field string, value interface{}) error { return nil })
		assert.Error(t, err)
	})

	t.Run("unknown record is rejected", func(t *testing.T) {
		_, applier := newApplierFixture(t)
		err := applier.ApplyFieldEdit(context.Background(), "zzz", "name", "x",
			func(ctx context.Context, key, field string, value interface{}) error { return nil })
		assert.Error(t, err)
	})
}

func TestApplyBulkDelete(t *testing.T) {
	t.Run("remote success removes rows and selection", func(t *testing.T) {
		ctrl, applier := newApplierFixture(t)
		ctrl.ToggleSelect("a")

		err := applier.ApplyBulkDelete(context.Background(), []string{"a"},
			func(ctx context.Context, keys []string) error {
				assert.Equal(t, []string{"a"}, keys)
				return nil
			})

		assert.NoError(t, err)
		assert.Empty(t, ctrl.Selected())
		_, ok := ctrl.Get("a")
		assert.False(t, ok)
		assert.Len(t, ctrl.Records(), 1)
		assert.Equal(t, int64(1), ctrl.Total())
	})

	t.Run("remote failure leaves rows intact", func(t *testing.T) {
		ctrl, applier := newApplierFixture(t)

		err := applier.ApplyBulkDelete(context.Background(), []string{"a", "b"},
			func(ctx context.Context, keys []string) error {
				return errors.New("delete failed")
			})

		assert.Error(t, err)
		assert.Len(t, ctrl.Records(), 2)
	})

	t.Run("rejected while a cell edit of a target is in flight", func(t *testing.T) {
		_, applier := newApplierFixture(t)

		entered := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = applier.ApplyFieldEdit(context.Background(), "a", "name", "x",
				func(ctx context.Context, key, field string, value interface{}) error {
					close(entered)
					<-release
					return nil
				})
		}()

		<-entered
		err := applier.ApplyBulkDelete(context.Background(), []string{"a"},
			func(ctx context.Context, keys []string) error { return nil })
		assert.ErrorIs(t, err, ErrEditInFlight)

		close(release)
		wg.Wait()
	})

	t.Run("edit rejected while record is being deleted", func(t *testing.T) {
		_, applier := newApplierFixture(t)

		entered := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = applier.ApplyBulkDelete(context.Background(), []string{"a"},
				func(ctx context.Context, keys []string) error {
					close(entered)
					<-release
					return nil
				})
		}()

		<-entered
		err := applier.ApplyFieldEdit(context.Background(), "a", "name", "x",
			func(ctx context.Context, key, field string, value interface{}) error { return nil })
		assert.ErrorIs(t, err, ErrEditInFlight)

		close(release)
		wg.Wait()
	})

	t.Run("empty key set is a no-op", func(t *testing.T) {
		ctrl, applier := newApplierFixture(t)
		assert.NoError(t, applier.ApplyBulkDelete(context.Background(), nil,
			func(ctx context.Context, keys []string) error {
				t.Fatal("remote should not be called")
				return nil
			}))
		assert.Len(t, ctrl.Records(), 2)
	})
}
