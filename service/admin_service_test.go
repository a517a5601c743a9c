package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"alwahis/pkg/models"
)

type mapCache struct {
	data  map[string][]byte
	fail  bool
	gets  int
	drops []string
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.gets++
	if c.fail {
		return false, errors.New("connection refused")
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	if c.fail {
		return errors.New("connection refused")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.drops = append(c.drops, k)
	}
	return nil
}

func TestCountsAndPopularRoutes(t *testing.T) {
	f := newFixture(t)
	dep := f.tomorrow(10, 0)
	f.publish("Najaf", "Karbala", dep, 4, 5000)
	f.publish("Baghdad", "Basra", dep, 4, 5000)
	f.publish("Baghdad", "Basra", dep, 4, 5000)
	erbil := f.publish("Baghdad", "Erbil", dep, 4, 5000)
	if err := f.svc.Ride().Cancel(f.ctx, erbil.ID); err != nil {
		t.Fatal(err)
	}
	f.submit(f.user("+9647700000040", models.RoleRider), "Baghdad", "Basra", dep, 1)

	st, err := f.svc.Admin().Counts(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := &models.Stats{TotalRides: 4, ActiveRides: 3, TotalUsers: 2, TotalDrivers: 1, TotalRequests: 1}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Fatalf("counts (-want +got):\n%s", diff)
	}

	routes, err := f.svc.Admin().PopularRoutes(f.ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantRoutes := []models.RouteCount{
		{DepartureCity: "Baghdad", DestinationCity: "Basra", RideCount: 2},
		{DepartureCity: "Baghdad", DestinationCity: "Erbil", RideCount: 1},
		{DepartureCity: "Najaf", DestinationCity: "Karbala", RideCount: 1},
	}
	if diff := cmp.Diff(wantRoutes, routes); diff != "" {
		t.Fatalf("popular routes (-want +got):\n%s", diff)
	}

	routes, _ = f.svc.Admin().PopularRoutes(f.ctx, 1)
	if len(routes) != 1 {
		t.Fatalf("limit ignored: %d routes", len(routes))
	}
}

func TestStatsCacheReadThrough(t *testing.T) {
	c := newMapCache()
	f := newFixture(t, func(o *Options) { o.Cache = c })
	f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 4, 5000)

	first, err := f.svc.Admin().Counts(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	f.publish("Baghdad", "Basra", f.tomorrow(11, 0), 4, 5000)

	second, _ := f.svc.Admin().Counts(f.ctx)
	if second.TotalRides != first.TotalRides {
		t.Fatalf("expected cached counts, got %+v", second)
	}

	if err := f.svc.Admin().PurgeRide(f.ctx, 1); err != nil {
		t.Fatal(err)
	}
	third, _ := f.svc.Admin().Counts(f.ctx)
	if third.TotalRides != 1 {
		t.Fatalf("purge should invalidate counts, got %+v", third)
	}
	if len(c.drops) == 0 {
		t.Fatalf("no cache keys invalidated")
	}
}

func TestStatsCacheFailureFallsBack(t *testing.T) {
	c := newMapCache()
	c.fail = true
	f := newFixture(t, func(o *Options) { o.Cache = c })
	f.publish("Baghdad", "Basra", f.tomorrow(10, 0), 4, 5000)

	st, err := f.svc.Admin().Counts(f.ctx)
	if err != nil {
		t.Fatalf("cache failure must not surface: %v", err)
	}
	if st.TotalRides != 1 || c.gets != 1 {
		t.Fatalf("unexpected %+v gets=%d", st, c.gets)
	}
}

func TestPurgeAndListRides(t *testing.T) {
	f := newFixture(t)
	var ids []int64
	for i := range 3 {
		ids = append(ids, f.publish("Baghdad", "Basra", f.tomorrow(10+i, 0), 4, 5000).ID)
		f.clock.Advance(time.Minute)
	}
	if err := f.svc.Ride().Cancel(f.ctx, ids[0]); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Admin().ListRides(f.ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{ids[2], ids[1]}, rideIDs(res.Rides)); diff != "" {
		t.Fatalf("newest first (-want +got):\n%s", diff)
	}
	if res.Pagination.TotalItems != 3 || res.Pagination.TotalPages != 2 {
		t.Fatalf("pagination %+v", res.Pagination)
	}

	if err := f.svc.Admin().PurgeRide(f.ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Ride().Get(f.ctx, ids[0]); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("purged ride still visible: %v", err)
	}
	if err := f.svc.Admin().PurgeRide(f.ctx, ids[0]); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("second purge: %v", err)
	}
}

func TestPurgeInvalidatesRoutesForEveryLimit(t *testing.T) {
	c := newMapCache()
	f := newFixture(t, func(o *Options) { o.Cache = c })
	dep := f.tomorrow(10, 0)
	basra := f.publish("Baghdad", "Basra", dep, 4, 5000)
	f.publish("Najaf", "Karbala", dep, 4, 5000)
	f.publish("Najaf", "Karbala", dep, 4, 5000)

	for _, limit := range []int{1, 2, 7} {
		if _, err := f.svc.Admin().PopularRoutes(f.ctx, limit); err != nil {
			t.Fatal(err)
		}
	}
	f.publish("Erbil", "Mosul", dep, 4, 5000)
	cached, _ := f.svc.Admin().PopularRoutes(f.ctx, 7)
	if len(cached) != 2 {
		t.Fatalf("expected cached ranking, got %+v", cached)
	}

	if err := f.svc.Admin().PurgeRide(f.ctx, basra.ID); err != nil {
		t.Fatal(err)
	}
	want := []models.RouteCount{
		{DepartureCity: "Najaf", DestinationCity: "Karbala", RideCount: 2},
		{DepartureCity: "Erbil", DestinationCity: "Mosul", RideCount: 1},
	}
	for _, limit := range []int{2, 7} {
		got, err := f.svc.Admin().PopularRoutes(f.ctx, limit)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("limit %d after purge (-want +got):\n%s", limit, diff)
		}
	}
	got, _ := f.svc.Admin().PopularRoutes(f.ctx, 1)
	if diff := cmp.Diff(want[:1], got); diff != "" {
		t.Fatalf("limit 1 after purge (-want +got):\n%s", diff)
	}
}
