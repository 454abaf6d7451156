package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/intent"
)

var (
	_ action.Navigator  = (*Memory)(nil)
	_ action.FormFiller = (*Memory)(nil)
	_ action.Navigator  = (*Rod)(nil)
	_ action.FormFiller = (*Rod)(nil)
)

func TestMemory_Navigate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("/app/dashboard")
	m.SetInputs(Input{Name: "email"})

	require.NoError(t, m.Navigate(ctx, "/app/fitness"))
	route, err := m.CurrentRoute(ctx)
	require.NoError(t, err)
	require.Equal(t, "/app/fitness", route)
	require.Equal(t, []string{"/app/fitness"}, m.Visited())
	require.Empty(t, m.Inputs())
}

func TestMemory_SelectorStrategies(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []Input
		selector string
		want     bool
	}{
		{"name attribute", []Input{{Name: "email"}}, action.EmailSelector, true},
		{"placeholder fallback", []Input{{Placeholder: "you@EXAMPLE.com"}}, action.EmailSelector, true},
		{"password by type", []Input{{Type: "password"}}, action.PasswordSelector, true},
		{"name placeholder ignores case", []Input{{Placeholder: "Full Name"}}, action.NameSelector, true},
		{"text input is not a password", []Input{{Name: "pw"}}, action.PasswordSelector, false},
		{"empty page", nil, action.EmailSelector, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory("/login")
			m.SetInputs(tt.inputs...)
			ok, err := m.HasField(context.Background(), tt.selector)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestMemory_UnsupportedSelector(t *testing.T) {
	m := NewMemory("/login")
	for _, sel := range []string{"#email", `input[name=email]`, `input[name="email"`, `input[name="x" s]`} {
		_, err := m.HasField(context.Background(), sel)
		require.Error(t, err, sel)
	}
}

func TestMemory_FillRestoresFocus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("/login")
	m.SetInputs(Input{Name: "chat"}, Input{Name: "email"}, Input{Type: "password"})
	m.Focus(0)

	restore, err := m.SaveFocus(ctx)
	require.NoError(t, err)
	require.NoError(t, m.SetFieldValue(ctx, action.EmailSelector, "you@x.com"))
	require.NoError(t, m.SetFieldValue(ctx, action.PasswordSelector, "123456"))
	require.Equal(t, 2, m.Focused())
	restore()

	require.Equal(t, 0, m.Focused())
	inputs := m.Inputs()
	require.Equal(t, "you@x.com", inputs[1].Value)
	require.Equal(t, "123456", inputs[2].Value)

	require.Error(t, m.SetFieldValue(ctx, action.NameSelector, "Sam"))
}

func TestMemory_WithExecutor(t *testing.T) {
	m := NewMemory("/register")
	m.SetInputs(Input{Name: "name"}, Input{Name: "email"}, Input{Name: "password", Type: "password"})
	e := &action.Executor{Forms: m, Navigator: m}

	out := e.Execute(context.Background(), dialogue.NewPending(intent.FillRegister, nil), action.Env{
		LastUserText: "fill register, name: Sam, email: sam@x.com, password: 123456",
	})
	require.True(t, out.OK, out.Message)
	require.Equal(t, []Input{
		{Name: "name", Value: "Sam"},
		{Name: "email", Value: "sam@x.com"},
		{Name: "password", Type: "password", Value: "123456"},
	}, m.Inputs())
	require.Equal(t, -1, m.Focused())
}
