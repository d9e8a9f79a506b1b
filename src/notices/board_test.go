package notices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoard(t *testing.T) {
	b := NewBoard(2)

	first := b.Post(SeverityError, "one")
	b.Post(SeverityWarning, "two")
	b.Post(SeverityInfo, "three")

	all := b.Since(0)
	assert.Len(t, all, 2)
	assert.Equal(t, "two", all[0].Message)
	assert.Equal(t, "three", all[1].Message)

	assert.Len(t, b.Since(all[0].Seq), 1)
	assert.False(t, b.Dismiss(first))
	assert.True(t, b.Dismiss(all[0].Seq))
	assert.Len(t, b.Since(0), 1)
}
