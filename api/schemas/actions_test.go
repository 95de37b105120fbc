package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeActionPlan_Navigate(t *testing.T) {
	plan, err := DecodeActionPlan([]byte(`{"action":"navigate","parameters":{"url":"https://example.com"}}`), ModeSelector)
	require.NoError(t, err)
	require.Equal(t, ActionNavigate, plan.Kind)
	require.NotNil(t, plan.Navigate)
	assert.Equal(t, "https://example.com", plan.Navigate.URL)
}

func TestDecodeActionPlan_RejectsUnknownAction(t *testing.T) {
	_, err := DecodeActionPlan([]byte(`{"action":"hover","parameters":{"selector":"#x"}}`), ModeSelector)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "unknown action")
}

func TestDecodeActionPlan_RejectsNonJSON(t *testing.T) {
	_, err := DecodeActionPlan([]byte(`click the button`), ModeSelector)
	require.Error(t, err)
}

func TestDecodeActionPlan_ValidationMatrix(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		mode    TargetMode
		wantErr string
	}{
		{
			name:    "missing action field",
			raw:     `{"parameters":{}}`,
			mode:    ModeSelector,
			wantErr: "missing 'action'",
		},
		{
			name:    "navigate without url",
			raw:     `{"action":"navigate","parameters":{}}`,
			mode:    ModeSelector,
			wantErr: "'url'",
		},
		{
			name:    "click without selector in selector mode",
			raw:     `{"action":"click","parameters":{"target_description":"login button"}}`,
			mode:    ModeSelector,
			wantErr: "'selector'",
		},
		{
			name:    "click without description in description mode",
			raw:     `{"action":"click","parameters":{"selector":"#login"}}`,
			mode:    ModeDescription,
			wantErr: "'target_description'",
		},
		{
			name:    "type without text",
			raw:     `{"action":"type","parameters":{"selector":"#q"}}`,
			mode:    ModeSelector,
			wantErr: "'text'",
		},
		{
			name:    "scroll with bad direction",
			raw:     `{"action":"scroll","parameters":{"direction":"sideways"}}`,
			mode:    ModeSelector,
			wantErr: "direction",
		},
		{
			name:    "scroll with no parameters",
			raw:     `{"action":"scroll"}`,
			mode:    ModeSelector,
			wantErr: "direction",
		},
		{
			name:    "press_key without key_name",
			raw:     `{"action":"press_key","parameters":{}}`,
			mode:    ModeSelector,
			wantErr: "'key_name'",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := DecodeActionPlan([]byte(tc.raw), tc.mode)
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDecodeActionPlan_ModeSelectsTargetField(t *testing.T) {
	plan, err := DecodeActionPlan([]byte(`{"action":"click","parameters":{"selector":"button.submit"}}`), ModeSelector)
	require.NoError(t, err)
	assert.Equal(t, "button.submit", plan.Click.Target())

	plan, err = DecodeActionPlan([]byte(`{"action":"click","parameters":{"target_description":"submit button"}}`), ModeDescription)
	require.NoError(t, err)
	assert.Equal(t, "submit button", plan.Click.Target())
}

func TestDecodeActionPlan_TypeCarriesText(t *testing.T) {
	plan, err := DecodeActionPlan([]byte(`{"action":"type","parameters":{"selector":"input[name='q']","text":"hello"}}`), ModeSelector)
	require.NoError(t, err)
	require.Equal(t, ActionType, plan.Kind)
	assert.Equal(t, "hello", plan.Type.Text)
	assert.Equal(t, "input[name='q']", plan.Type.Selector)
}

func TestDecodeActionPlan_ScrollDirections(t *testing.T) {
	for _, dir := range []ScrollDirection{ScrollUp, ScrollDown} {
		plan, err := DecodeActionPlan([]byte(`{"action":"scroll","parameters":{"direction":"`+string(dir)+`"}}`), ModeDescription)
		require.NoError(t, err)
		assert.Equal(t, dir, plan.Scroll.Direction)
	}
}

func TestActionPlanString(t *testing.T) {
	plan, err := DecodeActionPlan([]byte(`{"action":"press_key","parameters":{"key_name":"enter"}}`), ModeSelector)
	require.NoError(t, err)
	assert.Equal(t, "press_key(enter)", plan.String())
}
