// Package inventory retrieves the full item catalog for an organization.
package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/item-dedupe/internal/model"
	"github.com/sells-group/item-dedupe/pkg/zoho"
)

// ErrOrganizationRequired is returned when no organization id is given.
var ErrOrganizationRequired = errors.New("inventory: organization id is required")

// Lister fetches a single page of items.
type Lister interface {
	ListItems(ctx context.Context, accessToken, organizationID string, page, perPage int) (*zoho.ItemsPage, error)
}

// Fetcher pages through the items endpoint.
type Fetcher struct {
	lister  Lister
	perPage int
	limiter *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPerPage sets the page size, capped at zoho.MaxPerPage.
func WithPerPage(n int) Option {
	return func(f *Fetcher) {
		if n > 0 && n <= zoho.MaxPerPage {
			f.perPage = n
		}
	}
}

// WithRequestsPerMinute throttles page requests. Zero disables throttling.
func WithRequestsPerMinute(n int) Option {
	return func(f *Fetcher) {
		if n <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)
	}
}

// NewFetcher creates a Fetcher over lister.
func NewFetcher(lister Lister, opts ...Option) *Fetcher {
	f := &Fetcher{
		lister:  lister,
		perPage: zoho.MaxPerPage,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll returns every item in the organization, projected to model.Item.
// Paging stops when the provider reports no more pages or a page comes back
// empty. Any failed page aborts the whole fetch.
func (f *Fetcher) FetchAll(ctx context.Context, accessToken, organizationID string) ([]model.Item, error) {
	if organizationID == "" {
		return nil, ErrOrganizationRequired
	}

	log := zap.L().With(zap.String("organization_id", organizationID))
	log.Info("inventory: fetching all items", zap.Int("per_page", f.perPage))

	var items []model.Item
	for page := 1; ; page++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrapf(err, "inventory: rate limit wait page %d", page)
			}
		}

		resp, err := f.lister.ListItems(ctx, accessToken, organizationID, page, f.perPage)
		if err != nil {
			log.Error("inventory: page fetch failed", zap.Int("page", page), zap.Error(err))
			return nil, err
		}

		for _, raw := range resp.Items {
			items = append(items, Project(raw))
		}

		log.Debug("inventory: fetched page",
			zap.Int("page", page),
			zap.Int("page_items", len(resp.Items)),
			zap.Int("total", len(items)),
		)

		if len(resp.Items) == 0 || !resp.PageContext.HasMorePage {
			break
		}
	}

	log.Info("inventory: finished fetching items", zap.Int("total", len(items)))
	return items, nil
}

// Project keeps item_name, rate and unit from an upstream record. Missing,
// null or mistyped fields stay nil.
func Project(raw map[string]any) model.Item {
	var item model.Item
	if raw == nil {
		return item
	}
	if s, ok := raw["item_name"].(string); ok {
		item.Name = &s
	}
	if u, ok := raw["unit"].(string); ok {
		item.Unit = &u
	}
	switch r := raw["rate"].(type) {
	case float64:
		item.Rate = &r
	case string:
		if f, err := strconv.ParseFloat(r, 64); err == nil {
			item.Rate = &f
		}
	}
	return item
}
