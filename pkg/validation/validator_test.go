package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slugValidator(t *testing.T) *validator.Validate {
	t.Helper()
	Init()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return v
}

func TestSlugAcceptsDashSeparatedLowercase(t *testing.T) {
	v := slugValidator(t)
	for _, s := range []string{"alpha", "alpha-squad", "a1-b2-c3", "123", "x"} {
		assert.NoError(t, v.Var(s, "slug"), s)
	}
}

func TestSlugRejectsUnroutableValues(t *testing.T) {
	v := slugValidator(t)
	invalid := []string{
		"",
		"Alpha",
		"team one",
		"team_one",
		"team.one",
		"team/one",
		"team?x=1",
		"team#1",
		"équipe",
		"-alpha",
		"alpha-",
		"a--b",
	}
	for _, s := range invalid {
		assert.Error(t, v.Var(s, "slug"), s)
	}
}

func TestToDetailsSlugMessage(t *testing.T) {
	v := slugValidator(t)

	var body struct {
		Slug string `json:"slug" binding:"required,slug"`
	}
	body.Slug = "team/one"

	details := ToDetails(v.Struct(body))
	require.Contains(t, details, "slug")
	assert.Equal(t, "must contain only lowercase letters, digits and dashes", details["slug"])
}
