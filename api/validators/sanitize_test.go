package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "wild honey", SanitizeString("  wild \t  honey \n", 0))
	assert.Equal(t, "shila", SanitizeString("shilajit resin", 5))
	assert.Equal(t, "हिमा", SanitizeString("हिमालय", 4))
}
