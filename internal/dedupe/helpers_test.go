package dedupe

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sells-group/item-dedupe/internal/model"
)

// stubAnalyzer answers each call with the next reply in line. A reply may be
// a string (returned as text) or an error.
type stubAnalyzer struct {
	mu      sync.Mutex
	replies []any
	calls   [][]model.Item
}

func (s *stubAnalyzer) Analyze(_ context.Context, items []model.Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, items)
	if len(s.replies) == 0 {
		return `{"duplicates":[]}`, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	switch v := r.(type) {
	case error:
		return "", v
	case string:
		return v, nil
	default:
		panic(fmt.Sprintf("unexpected reply type %T", r))
	}
}

// groupReply renders a fenced reply with one group per name list.
func groupReply(groups ...[]string) string {
	var parts []string
	for i, names := range groups {
		var items []string
		for _, n := range names {
			items = append(items, fmt.Sprintf(`{"item_name":%q,"rate":1,"unit":"kg"}`, n))
		}
		parts = append(parts, fmt.Sprintf(`{"group":%d,"items":[%s],"reason":"case difference"}`, i+1, strings.Join(items, ",")))
	}
	return "```json\n{\"duplicates\":[" + strings.Join(parts, ",") + "]}\n```"
}

func namedItems(names ...string) []model.Item {
	out := make([]model.Item, len(names))
	for i, n := range names {
		out[i] = model.NewItem(n, 1, "kg")
	}
	return out
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) progress(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}
