package litedb_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	litedb "github.com/LionelAuroux/LiteDb"
)

var (
	Desc = litedb.MustDefine("Desc", map[string]string{
		"desc_id":   "integer primary key autoincrement",
		"desc_name": "varchar(20) not null",
		"desc_long": "text",
	})
	BiKey = litedb.MustDefine("BiKey", map[string]string{
		"bikey_txt":  "text not null",
		"bikey_num":  "integer not null",
		"bikey_num2": "integer not null",
		"bikey_val":  "text",
	}, "primary key(bikey_txt, bikey_num, bikey_num2)")
	Stats = litedb.MustDefine("Stats", map[string]string{
		"stats_id":  "integer primary key",
		"stats_num": "integer not null",
	})
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "Model.db")
}

// text normalizes a TEXT column value.
func text(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

func reset(t *testing.T, path string, tables ...*litedb.Table) {
	t.Helper()
	err := litedb.With(context.Background(), path, func(s *litedb.Session) error {
		if err := s.Begin(context.Background()); err != nil {
			return err
		}
		for _, tb := range tables {
			if err := s.Script(context.Background(), tb.SQL().Reset); err != nil {
				return err
			}
		}
		return s.End()
	})
	require.NoError(t, err)
}

func count(t *testing.T, s *litedb.Session, table string) int64 {
	t.Helper()
	require.NoError(t, s.Query(context.Background(), "select count(*) from "+table))
	row, err := s.FetchOne()
	require.NoError(t, err)
	require.Len(t, row, 1)
	return row[0].(int64)
}

func TestSQLite_SessionCreatesDatabase(t *testing.T) {
	path := tempDB(t)
	reset(t, path, Desc)
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSQLite_InsertFetchUpdate(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	reset(t, path, Desc)

	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		var batch litedb.Batch
		for i := 1; i <= 3; i++ {
			rec, err := Desc.Keyed(map[string]any{
				"desc_name": fmt.Sprintf("test%d", i),
				"desc_long": fmt.Sprintf("this is a test%d", i),
			})
			if err != nil {
				return err
			}
			batch = append(batch, rec)
		}
		require.NoError(t, s.Begin(ctx))
		require.NoError(t, Desc.Insert(ctx, s, batch))
		require.NoError(t, s.End())

		rec, err := Desc.Keyed(map[string]any{"desc_name": "test4", "desc_long": "this is a test4"})
		require.NoError(t, err)
		require.NoError(t, s.Begin(ctx))
		require.NoError(t, Desc.Insert(ctx, s, rec))
		return s.End()
	})
	require.NoError(t, err)

	err = litedb.With(ctx, path, func(s *litedb.Session) error {
		require.NoError(t, s.Begin(ctx))
		require.NoError(t, s.Query(ctx, "select desc_id from Desc where desc_long like ?", "this%"))
		var n int
		for _, err := range s.Fetch() {
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, 4, n)
		require.NoError(t, s.End())

		require.NoError(t, s.Query(ctx, "select * from Desc where desc_name = ?", "test2"))
		row, err := s.FetchOne()
		require.NoError(t, err)
		rec, err := Desc.Scan(row)
		require.NoError(t, err)
		require.NoError(t, s.End())

		id := rec.Get("desc_id")
		require.NoError(t, rec.Set("desc_name", "test_new"))
		require.NoError(t, s.Begin(ctx))
		require.NoError(t, Desc.Update(ctx, s, rec))
		require.NoError(t, s.End())

		require.NoError(t, s.Query(ctx, "select * from Desc where desc_id = ?", id))
		row, err = s.FetchOne()
		require.NoError(t, err)
		got, err := Desc.Scan(row)
		require.NoError(t, err)
		assert.Equal(t, "test_new", text(got.Get("desc_name")))
		assert.Equal(t, "this is a test2", text(got.Get("desc_long")))
		return s.End()
	})
	require.NoError(t, err)
}

func TestSQLite_RoundTripByPrimaryKey(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	reset(t, path, BiKey)

	in, err := BiKey.Record(int64(7), int64(8), "alpha", "payload")
	require.NoError(t, err)

	err = litedb.With(ctx, path, func(s *litedb.Session) error {
		require.NoError(t, BiKey.Insert(ctx, s, in))
		require.NoError(t, s.Commit())

		require.NoError(t, s.Query(ctx,
			"select * from BiKey where bikey_txt = ? and bikey_num = ? and bikey_num2 = ?",
			"alpha", 7, 8))
		row, err := s.FetchOne()
		require.NoError(t, err)
		for i, v := range row {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}
		out, err := BiKey.Scan(row)
		require.NoError(t, err)
		assert.True(t, in.Equal(out), "got %s, want %s", out, in)
		require.NoError(t, s.End())

		require.NoError(t, BiKey.Delete(ctx, s, litedb.Keyed{"bikey_txt": "alpha", "bikey_num": 7, "bikey_num2": 8}))
		assert.Equal(t, int64(0), count(t, s, "BiKey"))
		return s.End()
	})
	require.NoError(t, err)
}

func TestSQLite_ResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)

	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		for i := 0; i < 2; i++ {
			require.NoError(t, s.Script(ctx, Stats.SQL().Reset))
			rec, err := Stats.Record(nil, int64(i))
			require.NoError(t, err)
			require.NoError(t, Stats.Insert(ctx, s, rec))
			require.NoError(t, s.Script(ctx, Stats.SQL().Reset))
			assert.Equal(t, int64(0), count(t, s, "Stats"))
			require.NoError(t, s.End())
		}
		return nil
	})
	require.NoError(t, err)
}

func TestSQLite_BatchInsertCount(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	reset(t, path, Stats)

	const n = 25
	batch := make(litedb.Batch, 0, n)
	for i := 0; i < n; i++ {
		rec, err := Stats.Keyed(map[string]any{"stats_num": i})
		require.NoError(t, err)
		batch = append(batch, rec)
	}

	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		require.NoError(t, Stats.Insert(ctx, s, batch))
		require.NoError(t, s.Commit())
		assert.Equal(t, int64(n), count(t, s, "Stats"))
		return s.End()
	})
	require.NoError(t, err)
}

func TestSQLite_DeleteIf(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	reset(t, path, Stats)

	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		var batch litedb.Batch
		for _, num := range []int{5, 10, 15, 25, 30, 35} {
			rec, err := Stats.Keyed(map[string]any{"stats_num": num})
			require.NoError(t, err)
			batch = append(batch, rec)
		}
		require.NoError(t, s.Begin(ctx))
		require.NoError(t, Stats.Insert(ctx, s, batch))
		require.NoError(t, Stats.DeleteIf(ctx, s, "stats_num > 20"))
		require.NoError(t, s.End())

		require.NoError(t, Stats.UpdateIf(ctx, s, "stats_num = stats_num * 2", "stats_num < 10"))
		require.NoError(t, s.Commit())

		require.NoError(t, s.Query(ctx, "select stats_num from Stats order by stats_num"))
		rows, err := s.FetchAll()
		require.NoError(t, err)
		assert.Equal(t, []litedb.Row{{int64(10)}, {int64(10)}, {int64(15)}}, rows)
		return s.End()
	})
	require.NoError(t, err)
}

func TestSQLite_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	reset(t, path, Stats)

	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		rec, err := Stats.Record(int64(1), int64(1))
		require.NoError(t, err)
		require.NoError(t, Stats.Insert(ctx, s, rec))
		require.NoError(t, s.Rollback())
		assert.Equal(t, int64(0), count(t, s, "Stats"))

		require.NoError(t, s.Begin(ctx))
		require.NoError(t, Stats.Insert(ctx, s, rec))
		return nil
	})
	require.NoError(t, err)

	// Close discarded the uncommitted insert.
	err = litedb.With(ctx, path, func(s *litedb.Session) error {
		assert.Equal(t, int64(0), count(t, s, "Stats"))
		return s.End()
	})
	require.NoError(t, err)
}

func TestSQLite_EngineErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	reset(t, path, Stats)

	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		rec, err := Stats.Record(int64(1), int64(1))
		require.NoError(t, err)
		require.NoError(t, Stats.Insert(ctx, s, rec))
		return Stats.Insert(ctx, s, rec)
	})
	require.ErrorIs(t, err, litedb.ErrEngine)
	var serr sqlite3.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, sqlite3.ErrConstraint, serr.Code)

	err = litedb.With(ctx, path, func(s *litedb.Session) error {
		return s.Script(ctx, "create tabel oops")
	})
	require.ErrorIs(t, err, litedb.ErrEngine)
}

func TestSQLite_TransactionOutlivesCallContext(t *testing.T) {
	path := tempDB(t)
	reset(t, path, Stats)

	insert := func(s *litedb.Session, id int64) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		rec, err := Stats.Record(id, id*10)
		if err != nil {
			return err
		}
		return Stats.Insert(ctx, s, rec)
	}

	ctx := context.Background()
	err := litedb.With(ctx, path, func(s *litedb.Session) error {
		require.NoError(t, insert(s, 1))
		require.NoError(t, insert(s, 2))
		return s.Commit()
	})
	require.NoError(t, err)

	err = litedb.With(ctx, path, func(s *litedb.Session) error {
		assert.Equal(t, int64(2), count(t, s, "Stats"))
		return s.End()
	})
	require.NoError(t, err)
}
