// internal/translator/extractor.go
package translator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vxkade/uipilot/api/schemas"
	"github.com/vxkade/uipilot/internal/llmutil"
)

const extractionSystemPrompt = `You extract structured data from what is currently visible in a user
interface. Given the UI state and a query, respond with exactly one JSON
object whose keys and values answer the query. Use null for values that are
not present on the screen. Do not invent data.

Respond with the JSON object only. No explanations, no markdown.`

// ExtractData asks the interpreter to pull structured data out of the
// current state. Extraction is text-priority: the structural backend feeds
// URL, title and elements; the pixel backend feeds OCR text. There is no
// vision path.
func (t *Translator) ExtractData(ctx context.Context, query string, state *schemas.ScreenState) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for extraction slot: %w", err)
	}

	stateJSON, err := json.Marshal(t.boundState(state))
	if err != nil {
		return nil, fmt.Errorf("serializing screen state: %w", err)
	}

	userPrompt := fmt.Sprintf("Current UI state:\n%s\n\nExtraction query: %s", stateJSON, query)

	start := time.Now()
	raw, err := t.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: extractionSystemPrompt,
		UserPrompt:   userPrompt,
		Options: schemas.GenerationOptions{
			Temperature: t.temperature,
			ForceJSON:   true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("data extraction failed: %w", err)
	}

	result, err := llmutil.ParseJSONResponse[map[string]any](raw)
	if err != nil {
		t.logger.Warn("Extraction response was not a JSON object",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, err
	}

	t.logger.Debug("Data extracted",
		zap.String("query", query),
		zap.Int("fields", len(*result)),
		zap.Duration("duration", time.Since(start)),
	)
	return *result, nil
}
