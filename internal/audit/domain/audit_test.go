package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescription_Valid(t *testing.T) {
	for _, d := range []Description{Created, ChangedPassword, ChangedNameAndFile, FileUploaded} {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, Description("Deleted").Valid())
	assert.False(t, Description("").Valid())
}
