package api

import (
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// parseDate accepts a calendar date (2006-01-02) in loc or a full RFC 3339
// timestamp.
func parseDate(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, v, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", v)
	}
	return t, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func queryLimit(c *gin.Context) (int, error) {
	n, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		n = defaultListLimit
	}
	return min(n, maxListLimit), nil
}

// take drains at most n items from seq.
func take[T any](seq iter.Seq2[T, error], n int) ([]T, error) {
	out := make([]T, 0, min(n, 16))
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out, nil
}
