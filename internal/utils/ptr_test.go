package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringOrNil(t *testing.T) {
	assert.Nil(t, StringOrNil("  "))
	assert.Equal(t, "x", *StringOrNil(" x "))
}

func TestOrZero(t *testing.T) {
	assert.Equal(t, "", OrZero[string](nil))
	assert.Equal(t, 3, OrZero(Ptr(3)))
}

func TestClone(t *testing.T) {
	orig := Ptr("a")
	c := Clone(orig)
	*c = "b"
	assert.Equal(t, "a", *orig)
	assert.Nil(t, Clone[string](nil))
}
