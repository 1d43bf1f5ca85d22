package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type surgeonRef struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type sample struct {
	Name     string       `json:"full_name" validate:"required,max=5"`
	Email    string       `json:"email" validate:"omitempty,email"`
	Age      *int         `json:"age" validate:"omitempty,gte=0,lte=150"`
	Surgeons []surgeonRef `json:"surgeons" validate:"max=2,dive"`
	Internal string       `json:"-"`
}

func TestValidate_OK(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(&sample{Name: "Ann"}))
}

func TestMessages_UsesJSONNames(t *testing.T) {
	v := New()
	age := 200
	err := v.Validate(&sample{Email: "nope", Age: &age})
	require.Error(t, err)

	assert.Equal(t, []string{
		"full_name : This field is required.",
		"email : Enter a valid email address.",
		"age : Ensure this value is less than or equal to 150.",
	}, Messages(err))
}

func TestMessages_NestedAndLength(t *testing.T) {
	v := New()
	err := v.Validate(&sample{
		Name:     "Too long name",
		Surgeons: []surgeonRef{{ID: 0}},
	})
	require.Error(t, err)

	assert.Equal(t, []string{
		"full_name : Ensure this field has no more than 5 characters.",
		"surgeons[0].id : Ensure this value is greater than 0.",
	}, Messages(err))
}

func TestMessages_NonValidationError(t *testing.T) {
	assert.Nil(t, Messages(errors.New("boom")))
	assert.Nil(t, Messages(nil))
}
