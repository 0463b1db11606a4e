package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"etlgate/internal/dataset"
)

// DefaultBatchSize is used when a caller passes a batch size <= 0 to
// LoadFrame.
const DefaultBatchSize = 1000

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns the number of rows written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error. A progress line is logged per flushed batch.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
	logger zerolog.Logger,
) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, errors.New("copyFn must not be nil")
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		// copyFn must not retain rows; the backing array is reused.
		batch = batch[:0]
		if err != nil {
			logger.Error().Err(err).Int64("inserted", n).Int64("total", total).Msg("loader: copy failed")
			return err
		}

		batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		logger.Debug().
			Int64("batch", batches).
			Int64("inserted", n).
			Int64("total", total).
			Float64("rps", rps).
			Dur("elapsed", now.Sub(start)).
			Msg("loader: batch flushed")
		lastFlush = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				logger.Debug().Int64("batches", batches).Int64("total", total).Msg("loader: input drained")
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// LoadFrame streams the given columns of f into repo in batches. Empty
// columns means all of f's columns. Values are converted with DBValue.
func LoadFrame(
	ctx context.Context,
	repo Repository,
	f *dataset.Frame,
	columns []string,
	batchSize int,
	logger zerolog.Logger,
) (int64, error) {
	if len(columns) == 0 && f != nil {
		columns = f.Columns
	}
	if len(columns) == 0 {
		return 0, errors.New("storage: no columns to load")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan []any, batchSize)
	go func() {
		defer close(in)
		for i := 0; i < f.Len(); i++ {
			row := f.Values(i, columns)
			for j, v := range row {
				row[j] = DBValue(v)
			}
			select {
			case in <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	n, err := LoadBatches(ctx, columns, in, batchSize, repo.CopyFrom, logger)
	if err != nil {
		return n, fmt.Errorf("storage: load: %w", err)
	}
	return n, nil
}

// DBValue converts frame values into types every database/sql and pgx driver
// accepts: json.Number becomes int64 or float64, NaN becomes nil, and nested
// maps or slices become their JSON text.
func DBValue(v any) any {
	if dataset.IsNull(v) {
		return nil
	}
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f
		}
		return string(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	case int:
		return int64(t)
	}
	return v
}
