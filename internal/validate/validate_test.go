// internal/validate/validate_test.go
package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/fractalizend/screener/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Time  string `json:"time" default:"00:00" validate:"datetime=15:04"`
	Color string `json:"color" validate:"omitempty,oneof=red green"`
}

func TestStruct_AppliesDefaults(t *testing.T) {
	s := &sample{Name: "x"}
	require.NoError(t, Struct(context.Background(), s))
	assert.Equal(t, "00:00", s.Time)
}

func TestStruct_Missing(t *testing.T) {
	err := Struct(context.Background(), &sample{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingField))
	assert.Contains(t, err.Error(), "name is required")
}

func TestStruct_Invalid(t *testing.T) {
	err := Struct(context.Background(), &sample{Name: "x", Time: "25:99"})
	assert.True(t, errors.Is(err, core.ErrInvalidField))

	err = Struct(context.Background(), &sample{Name: "x", Color: "blue"})
	assert.True(t, errors.Is(err, core.ErrInvalidField))
	assert.Contains(t, err.Error(), "color must be one of: red, green")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var(context.Background(), "tag", "crypto", "required,max=32"))

	err := Var(context.Background(), "tag", "", "required,max=32")
	assert.True(t, errors.Is(err, core.ErrMissingField))
}

func TestCheck_DoesNotApplyDefaults(t *testing.T) {
	s := &sample{Name: "x"}
	err := Check(context.Background(), s)
	require.Error(t, err, "empty time fails datetime without the default")
	assert.Empty(t, s.Time)
}
