package action

import (
	"context"
	"fmt"

	"github.com/hpungsan/healthyfy/internal/entity"
)

// Selectors for the visible auth forms. Each is tried as a comma list.
const (
	EmailSelector    = `input[name="email"], input[placeholder*="@" i]`
	PasswordSelector = `input[name="password"], input[type="password"]`
	NameSelector     = `input[name="name"], input[placeholder*="name" i]`
)

type formField struct {
	key      string
	selector string
}

type formSpec struct {
	title  string
	button string
	hint   string
	fields []formField
}

var (
	loginForm = formSpec{
		title:  "Login",
		button: "Sign in",
		hint:   `Reply with "fill login, email: you@x.com, password: 123456" and I'll fill the fields.`,
		fields: []formField{{"email", EmailSelector}, {"password", PasswordSelector}},
	}
	registerForm = formSpec{
		title:  "Register",
		button: "Create account",
		hint:   `Reply with "fill register, name: Sam, email: sam@x.com, password: 123456" and I'll fill the fields.`,
		fields: []formField{{"name", NameSelector}, {"email", EmailSelector}, {"password", PasswordSelector}},
	}
)

// fillForm copies key:value pairs from the user's request into the form.
// It never submits.
func (e *Executor) fillForm(ctx context.Context, a FillForm, lastUserText string) Outcome {
	spec := loginForm
	if a.Register {
		spec = registerForm
	}

	kv := entity.ParseKeyValues(lastUserText)
	for _, f := range spec.fields {
		if kv[f.key] == "" {
			return fail(spec.hint)
		}
	}

	if e.Forms == nil {
		return fail("Form filling is not available here.")
	}
	for _, f := range spec.fields {
		ok, err := e.Forms.HasField(ctx, f.selector)
		if err != nil {
			return e.collaboratorFailed("read the page", err)
		}
		if !ok {
			return fail(fmt.Sprintf("I can't find the %s form fields on this page.", spec.title))
		}
	}

	restore, err := e.Forms.SaveFocus(ctx)
	if err != nil {
		return e.collaboratorFailed("read the page", err)
	}
	if restore != nil {
		defer restore()
	}

	for _, f := range spec.fields {
		if err := e.Forms.SetFieldValue(ctx, f.selector, kv[f.key]); err != nil {
			return e.collaboratorFailed("fill the "+f.key+" field", err)
		}
	}
	return succeed(fmt.Sprintf(`Filled the %s form fields. Review them, then click "%s" when ready.`, spec.title, spec.button))
}
