package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/item-dedupe/pkg/zoho"
)

// pagedLister serves total items in pages and counts calls.
type pagedLister struct {
	total int
	calls int
	// emptyFlag makes every page claim more pages exist.
	emptyFlag bool
	failPage  int
}

func (p *pagedLister) ListItems(_ context.Context, _, _ string, page, perPage int) (*zoho.ItemsPage, error) {
	p.calls++
	if p.failPage == page {
		return nil, &zoho.UpstreamFetchError{StatusCode: 500, Page: page, Message: "boom"}
	}
	start := (page - 1) * perPage
	end := min(start+perPage, p.total)
	var items []map[string]any
	for i := start; i < end; i++ {
		items = append(items, map[string]any{"item_name": fmt.Sprintf("item-%d", i), "rate": float64(i), "unit": "pcs"})
	}
	more := end < p.total
	if p.emptyFlag {
		more = true
	}
	return &zoho.ItemsPage{Items: items, PageContext: zoho.PageContext{Page: page, PerPage: perPage, HasMorePage: more}}, nil
}

func TestFetchAll_TerminatesWithinBound(t *testing.T) {
	for _, tc := range []struct{ total, perPage int }{
		{0, 10}, {1, 10}, {10, 10}, {11, 10}, {25, 7}, {2999, 1000}, {3000, 1000}, {5, 1},
	} {
		t.Run(fmt.Sprintf("n=%d/per=%d", tc.total, tc.perPage), func(t *testing.T) {
			l := &pagedLister{total: tc.total}
			f := NewFetcher(l, WithPerPage(tc.perPage))

			items, err := f.FetchAll(context.Background(), "at", "org")
			require.NoError(t, err)
			assert.Len(t, items, tc.total)

			bound := (tc.total+tc.perPage-1)/tc.perPage + 1
			assert.LessOrEqual(t, l.calls, bound)
		})
	}
}

func TestFetchAll_PreservesOrder(t *testing.T) {
	f := NewFetcher(&pagedLister{total: 23}, WithPerPage(5))

	items, err := f.FetchAll(context.Background(), "at", "org")
	require.NoError(t, err)
	for i, it := range items {
		assert.Equal(t, "item-"+strconv.Itoa(i), it.NameOrEmpty())
	}
}

func TestFetchAll_EmptyPageWithMoreFlagTerminates(t *testing.T) {
	l := &pagedLister{total: 10, emptyFlag: true}
	f := NewFetcher(l, WithPerPage(5))

	items, err := f.FetchAll(context.Background(), "at", "org")
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, 3, l.calls)
}

func TestFetchAll_PageFailureAbortsWithoutPartialResult(t *testing.T) {
	l := &pagedLister{total: 30, failPage: 2}
	f := NewFetcher(l, WithPerPage(10))

	items, err := f.FetchAll(context.Background(), "at", "org")
	assert.Nil(t, items)

	var ufe *zoho.UpstreamFetchError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, 2, ufe.Page)
	assert.Equal(t, 500, ufe.StatusCode)
}

func TestFetchAll_RequiresOrganization(t *testing.T) {
	f := NewFetcher(&pagedLister{})
	_, err := f.FetchAll(context.Background(), "at", "")
	assert.ErrorIs(t, err, ErrOrganizationRequired)
}

func TestWithPerPage_IgnoresOutOfRange(t *testing.T) {
	assert.Equal(t, zoho.MaxPerPage, NewFetcher(nil, WithPerPage(0)).perPage)
	assert.Equal(t, zoho.MaxPerPage, NewFetcher(nil, WithPerPage(5000)).perPage)
	assert.Equal(t, 250, NewFetcher(nil, WithPerPage(250)).perPage)
}

func TestWithRequestsPerMinute(t *testing.T) {
	assert.Nil(t, NewFetcher(nil, WithRequestsPerMinute(0)).limiter)
	f := NewFetcher(nil, WithRequestsPerMinute(120))
	require.NotNil(t, f.limiter)
	assert.InDelta(t, 2.0, float64(f.limiter.Limit()), 0.0001)
}

func TestFetchAll_RateLimitHonorsContext(t *testing.T) {
	f := NewFetcher(&pagedLister{total: 3}, WithRequestsPerMinute(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchAll(ctx, "at", "org")
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			name: "full record drops extra fields",
			raw:  map[string]any{"item_name": "Apple", "rate": 10.0, "unit": "kg", "sku": "A1", "item_id": "123"},
			want: `{"item_name":"Apple","rate":10,"unit":"kg"}`,
		},
		{
			name: "missing fields become null",
			raw:  map[string]any{"item_name": "Apple"},
			want: `{"item_name":"Apple","rate":null,"unit":null}`,
		},
		{
			name: "explicit nulls stay null",
			raw:  map[string]any{"item_name": nil, "rate": nil, "unit": nil},
			want: `{"item_name":null,"rate":null,"unit":null}`,
		},
		{
			name: "string rate parsed",
			raw:  map[string]any{"item_name": "Salt", "rate": "12.5", "unit": ""},
			want: `{"item_name":"Salt","rate":12.5,"unit":""}`,
		},
		{
			name: "nil record",
			raw:  nil,
			want: `{"item_name":null,"rate":null,"unit":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(Project(tt.raw))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestFetchAll_AgainstZohoClient(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			w.Write([]byte(`{"code":0,"items":[{"item_name":"Apple","rate":10,"unit":"kg"},{"item_name":"apple","rate":10,"unit":"kg"}],"page_context":{"page":1,"has_more_page":true}}`))
		case "2":
			w.Write([]byte(`{"code":0,"items":[{"item_name":"Banana","rate":5,"unit":"kg"}],"page_context":{"page":2}}`))
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer srv.Close()

	f := NewFetcher(zoho.NewClient(zoho.WithAPIURL(srv.URL)), WithPerPage(2))
	items, err := f.FetchAll(context.Background(), "at", "org")

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Banana", items[2].NameOrEmpty())
	assert.Equal(t, 2, pages)
}
