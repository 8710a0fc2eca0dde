package analyze

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/item-dedupe/internal/model"
)

const returnShape = `Return JSON:
{
  "duplicates": [
    {
      "group": 1,
      "items": [{"item_name": "Apple 10KG", "rate": 100, "unit": "kg"}, {"item_name": "apple 10kg", "rate": 100, "unit": "kg"}],
      "confidence_score": 0.98,
      "reason": "case difference"
    }
  ],
  "summary": {"total_items": %d, "duplicate_groups": 0}
}`

// BuildUserPrompt renders the per-batch message: the expected reply shape
// followed by the serialized items.
func BuildUserPrompt(items []model.Item) (string, error) {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", eris.Wrap(err, "analyze: marshal items")
	}
	return fmt.Sprintf(returnShape, len(items)) + "\n\nItems: " + string(data), nil
}
