package dispatch

import (
	"context"
	"net/url"

	"github.com/dalemusser/copilot/internal/app/clients/triton"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/domain/models"
)

// Query lists entities and records the result as the kind's last-fetched
// list. All pages are followed.
func Query[T models.Entity](ctx context.Context, d *Dispatcher, tc *triton.Client, kind entitycache.Kind, params url.Values) ([]T, error) {
	var items []T
	err := d.call("query", kind, "", func(seq uint64) (bool, error) {
		var err error
		items, err = triton.QueryAll[T](ctx, tc, kind.Plural(), params)
		if err != nil {
			return false, err
		}
		return entitycache.Queried(d.cache, kind, items, seq), nil
	})
	return items, err
}

// Get fetches one entity into the cache.
func Get[T models.Entity](ctx context.Context, d *Dispatcher, tc *triton.Client, kind entitycache.Kind, uid string) (T, error) {
	var item T
	err := d.call("get", kind, uid, func(seq uint64) (bool, error) {
		var err error
		item, err = triton.Get[T](ctx, tc, kind.Plural(), uid)
		if err != nil {
			return false, err
		}
		return entitycache.Got(d.cache, kind, item, seq), nil
	})
	return item, err
}

// Add creates an entity upstream and caches Triton's copy.
func Add[T models.Entity](ctx context.Context, d *Dispatcher, tc *triton.Client, kind entitycache.Kind, in T) (T, error) {
	var item T
	err := d.call("add", kind, "", func(seq uint64) (bool, error) {
		var err error
		item, err = triton.Add(ctx, tc, kind.Plural(), in)
		if err != nil {
			return false, err
		}
		return entitycache.Added(d.cache, kind, item, seq), nil
	})
	return item, err
}

// Update replaces an entity upstream and caches Triton's copy. A 409 from
// Triton is returned unchanged and leaves the cache untouched.
func Update[T models.Entity](ctx context.Context, d *Dispatcher, tc *triton.Client, kind entitycache.Kind, in T) (T, error) {
	var item T
	err := d.call("update", kind, in.Key(), func(seq uint64) (bool, error) {
		var err error
		item, err = triton.Update(ctx, tc, kind.Plural(), in)
		if err != nil {
			return false, err
		}
		return entitycache.Updated(d.cache, kind, item, seq), nil
	})
	return item, err
}

// Remove deletes an entity upstream and from the cache.
func Remove(ctx context.Context, d *Dispatcher, tc *triton.Client, kind entitycache.Kind, uid string) error {
	return d.call("remove", kind, uid, func(seq uint64) (bool, error) {
		if err := triton.Remove(ctx, tc, kind.Plural(), uid); err != nil {
			return false, err
		}
		return entitycache.Removed(d.cache, kind, uid, seq), nil
	})
}
