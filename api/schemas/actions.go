package schemas

import (
	"encoding/json"
	"fmt"
)

// -- Action Plan Schemas --

// ActionKind enumerates the five actions the translator may produce.
type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionClick    ActionKind = "click"
	ActionType     ActionKind = "type"
	ActionScroll   ActionKind = "scroll"
	ActionPressKey ActionKind = "press_key"
)

// ScrollDirection is the only accepted vocabulary for scroll actions.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// TargetMode selects how click/type targets are addressed, which in turn
// decides the required parameter field at validation time.
type TargetMode string

const (
	// ModeSelector addresses elements structurally via a CSS selector.
	ModeSelector TargetMode = "selector"
	// ModeDescription addresses targets by a text description that is resolved
	// against registered template images.
	ModeDescription TargetMode = "description"
)

// NavigateParams carries the parameters for a navigate action.
type NavigateParams struct {
	URL string `json:"url"`
}

// ClickParams carries the parameters for a click action. Exactly one of
// Selector or TargetDescription is set, depending on the backend mode.
type ClickParams struct {
	Selector          string `json:"selector,omitempty"`
	TargetDescription string `json:"target_description,omitempty"`
}

// Target returns whichever addressing field is populated.
func (p ClickParams) Target() string {
	if p.Selector != "" {
		return p.Selector
	}
	return p.TargetDescription
}

// TypeParams carries the parameters for a type action.
type TypeParams struct {
	Selector          string `json:"selector,omitempty"`
	TargetDescription string `json:"target_description,omitempty"`
	Text              string `json:"text"`
}

// Target returns whichever addressing field is populated.
func (p TypeParams) Target() string {
	if p.Selector != "" {
		return p.Selector
	}
	return p.TargetDescription
}

// ScrollParams carries the parameters for a scroll action.
type ScrollParams struct {
	Direction ScrollDirection `json:"direction"`
}

// PressKeyParams carries the parameters for a press_key action.
type PressKeyParams struct {
	KeyName string `json:"key_name"`
}

// ActionPlan is the validated, structured instruction produced by translating
// a natural-language command against the current UI state. It is a tagged
// union: exactly the record matching Kind is non-nil. Plans are ephemeral:
// produced once, consumed once, never persisted or retried as a unit.
type ActionPlan struct {
	Kind ActionKind

	Navigate *NavigateParams
	Click    *ClickParams
	Type     *TypeParams
	Scroll   *ScrollParams
	PressKey *PressKeyParams
}

// rawActionPlan mirrors the untyped wire shape returned by the translator.
type rawActionPlan struct {
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters"`
}

// ValidationError reports a malformed or disallowed action plan. A single
// violation discards the whole plan; there is no partial acceptance.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid action plan: " + e.Reason
}

func invalidPlan(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// DecodeActionPlan decodes and validates a raw translator response in one
// pass. The translator is an untrusted collaborator, so nothing from the
// response is accepted without being checked here. Downstream code switches
// on Kind and reads the matching typed record; it never touches raw maps.
func DecodeActionPlan(data []byte, mode TargetMode) (*ActionPlan, error) {
	var raw rawActionPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalidPlan("response is not a JSON object: %v", err)
	}
	if raw.Action == "" {
		return nil, invalidPlan("missing 'action' field")
	}
	if len(raw.Parameters) == 0 {
		raw.Parameters = json.RawMessage("{}")
	}

	plan := &ActionPlan{Kind: ActionKind(raw.Action)}
	switch plan.Kind {
	case ActionNavigate:
		var p NavigateParams
		if err := json.Unmarshal(raw.Parameters, &p); err != nil {
			return nil, invalidPlan("navigate parameters malformed: %v", err)
		}
		if p.URL == "" {
			return nil, invalidPlan("navigate requires a string 'url' parameter")
		}
		plan.Navigate = &p

	case ActionClick:
		var p ClickParams
		if err := json.Unmarshal(raw.Parameters, &p); err != nil {
			return nil, invalidPlan("click parameters malformed: %v", err)
		}
		if err := validateTarget(mode, p.Selector, p.TargetDescription, "click"); err != nil {
			return nil, err
		}
		plan.Click = &p

	case ActionType:
		var p TypeParams
		if err := json.Unmarshal(raw.Parameters, &p); err != nil {
			return nil, invalidPlan("type parameters malformed: %v", err)
		}
		if err := validateTarget(mode, p.Selector, p.TargetDescription, "type"); err != nil {
			return nil, err
		}
		if p.Text == "" {
			return nil, invalidPlan("type requires a string 'text' parameter")
		}
		plan.Type = &p

	case ActionScroll:
		var p ScrollParams
		if err := json.Unmarshal(raw.Parameters, &p); err != nil {
			return nil, invalidPlan("scroll parameters malformed: %v", err)
		}
		if p.Direction != ScrollUp && p.Direction != ScrollDown {
			return nil, invalidPlan("scroll direction must be 'up' or 'down', got %q", p.Direction)
		}
		plan.Scroll = &p

	case ActionPressKey:
		var p PressKeyParams
		if err := json.Unmarshal(raw.Parameters, &p); err != nil {
			return nil, invalidPlan("press_key parameters malformed: %v", err)
		}
		if p.KeyName == "" {
			return nil, invalidPlan("press_key requires a string 'key_name' parameter")
		}
		plan.PressKey = &p

	default:
		return nil, invalidPlan("unknown action %q", raw.Action)
	}

	return plan, nil
}

func validateTarget(mode TargetMode, selector, description, action string) error {
	switch mode {
	case ModeSelector:
		if selector == "" {
			return invalidPlan("%s requires a string 'selector' parameter", action)
		}
	case ModeDescription:
		if description == "" {
			return invalidPlan("%s requires a string 'target_description' parameter", action)
		}
	default:
		return invalidPlan("unknown target mode %q", mode)
	}
	return nil
}

// String renders a compact human-readable summary for logging.
func (p *ActionPlan) String() string {
	switch p.Kind {
	case ActionNavigate:
		return fmt.Sprintf("navigate(%s)", p.Navigate.URL)
	case ActionClick:
		return fmt.Sprintf("click(%s)", p.Click.Target())
	case ActionType:
		return fmt.Sprintf("type(%s, %q)", p.Type.Target(), p.Type.Text)
	case ActionScroll:
		return fmt.Sprintf("scroll(%s)", p.Scroll.Direction)
	case ActionPressKey:
		return fmt.Sprintf("press_key(%s)", p.PressKey.KeyName)
	}
	return string(p.Kind)
}
