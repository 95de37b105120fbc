// internal/browser/harvester.go
package browser

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/vxkade/uipilot/api/schemas"
)

// interactiveCategories is the fixed, ordered list of selectors that define
// what counts as an interactive element. Earlier categories win when the
// overall element cap is reached.
var interactiveCategories = []string{
	"button",
	"a[href]",
	"input:not([type='hidden'])",
	"textarea",
	"select",
	"[role='button']",
	"[role='link']",
	"[role='menuitem']",
	"[role='tab']",
	"[role='checkbox']",
	"[role='radio']",
	"[contenteditable='true']",
}

// reportedAttributes are the only attributes surfaced to the translator.
var reportedAttributes = []string{"id", "name", "placeholder", "aria-label", "type", "role", "value"}

const maxTextLength = 64

// Harvester walks the interactive element categories and produces the
// bounded element list for a ScreenState.
type Harvester struct {
	logger       *zap.Logger
	probeTimeout time.Duration
	maxElements  int
}

// NewHarvester creates a harvester with the configured bounds.
func NewHarvester(logger *zap.Logger, probeTimeout time.Duration, maxElements int) *Harvester {
	return &Harvester{
		logger:       logger.Named("harvester"),
		probeTimeout: probeTimeout,
		maxElements:  maxElements,
	}
}

// Collect gathers visible interactive elements in category order. It runs
// inside a chromedp ActionFunc, so c is a CDP execution context. Failures on
// a single category or element are logged and skipped; a broken widget never
// aborts the scan.
func (h *Harvester) Collect(c context.Context) []schemas.ElementDescriptor {
	elements := make([]schemas.ElementDescriptor, 0, h.maxElements)

	for _, category := range interactiveCategories {
		if len(elements) >= h.maxElements {
			break
		}
		if c.Err() != nil {
			break
		}

		var nodes []*cdp.Node
		err := chromedp.Nodes(category, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)).Do(c)
		if err != nil {
			h.logger.Debug("Category query failed, skipping.",
				zap.String("category", category), zap.Error(err))
			continue
		}

		for _, node := range nodes {
			if len(elements) >= h.maxElements {
				break
			}
			if node == nil {
				continue
			}
			if !h.isVisible(c, node) {
				continue
			}
			elements = append(elements, describeNode(node))
		}
	}

	return elements
}

// isVisible probes the node's box model under a short deadline. Detached or
// zero-size nodes have no box model and fail the probe.
func (h *Harvester) isVisible(c context.Context, node *cdp.Node) bool {
	probeCtx, cancel := context.WithTimeout(c, h.probeTimeout)
	defer cancel()

	box, err := dom.GetBoxModel().WithNodeID(node.NodeID).Do(probeCtx)
	if err != nil || box == nil {
		return false
	}
	return box.Width > 0 && box.Height > 0
}

// describeNode builds the descriptor: tag plus the non-empty reported
// attributes, with visible text folded in as a pseudo-attribute.
func describeNode(node *cdp.Node) schemas.ElementDescriptor {
	attrs := attributeMap(node)
	desc := schemas.ElementDescriptor{
		Tag:        strings.ToLower(node.NodeName),
		Attributes: make(map[string]string),
	}

	if text := nodeText(node, attrs); text != "" {
		desc.Attributes["text"] = text
	}
	for _, name := range reportedAttributes {
		if val, ok := attrs[name]; ok && val != "" {
			desc.Attributes[name] = val
		}
	}
	if len(desc.Attributes) == 0 {
		desc.Attributes = nil
	}
	return desc
}

// nodeText collects the node's direct text children, falling back to
// aria-label then title, truncated to maxTextLength bytes.
func nodeText(node *cdp.Node, attrs map[string]string) string {
	var sb strings.Builder
	for _, child := range node.Children {
		if child != nil && child.NodeType == cdp.NodeTypeText {
			sb.WriteString(child.NodeValue)
		}
		if sb.Len() >= maxTextLength {
			break
		}
	}
	if sb.Len() == 0 {
		if label := attrs["aria-label"]; label != "" {
			sb.WriteString(label)
		} else if title := attrs["title"]; title != "" {
			sb.WriteString(title)
		}
	}

	text := strings.TrimSpace(sb.String())

	const ellipsis = "…"
	if len(text) > maxTextLength {
		return schemas.TruncateBytes(text, maxTextLength-len(ellipsis)) + ellipsis
	}
	return text
}

// attributeMap flattens the CDP attribute name/value pair list into a map.
func attributeMap(node *cdp.Node) map[string]string {
	attrs := make(map[string]string)
	if node == nil || len(node.Attributes) == 0 {
		return attrs
	}
	for i := 0; i+1 < len(node.Attributes); i += 2 {
		attrs[node.Attributes[i]] = node.Attributes[i+1]
	}
	return attrs
}
