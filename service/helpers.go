package service

import (
	"context"
	"iter"
	"time"

	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/pkg/models"
)

// dayRange returns the half-open calendar day [start, end) containing t in loc.
func dayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// batched turns an offset-paged fetch into a lazy sequence. Every range over
// the result re-runs the query from the first batch. The sequence ends after a
// short batch or the first error.
func batched[T any](ctx context.Context, size int, fetch func(ctx context.Context, limit, offset int) ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		offset := 0
		for {
			items, err := fetch(ctx, size, offset)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, it := range items {
				if !yield(it, nil) {
					return
				}
			}
			if len(items) < size {
				return
			}
			offset += len(items)
		}
	}
}

func empty[T any]() iter.Seq2[T, error] {
	return func(func(T, error) bool) {}
}

// publish sends e without failing the caller; the write it describes has
// already committed.
func publish(ctx context.Context, p events.Publisher, log logger.ILogger, e events.Event) {
	if err := p.Publish(ctx, e); err != nil {
		log.Warning("failed to publish event",
			logger.String("type", e.Type),
			logger.Int64("entity_id", e.EntityID),
			logger.Error(err),
		)
	}
}

// paging resolves the requested page and page size against the configured
// defaults. Page 0 means the first page, perPage 0 the default size.
func (o Options) paging(page, perPage int) (int, int, error) {
	if page < 0 {
		return 0, 0, models.NewValidationError("page", "must be positive")
	}
	if perPage < 0 {
		return 0, 0, models.NewValidationError("per_page", "must be positive")
	}
	if perPage == 0 {
		perPage = o.PageSize
	}
	return max(page, 1), min(perPage, o.MaxPageSize), nil
}

func pagination(total, page, perPage int) models.Pagination {
	return models.Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		TotalItems:  total,
		TotalPages:  (total + perPage - 1) / perPage,
	}
}
