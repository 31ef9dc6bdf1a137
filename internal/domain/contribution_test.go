package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"go", "video", "tutorial"}, SplitTags("go, video ,tutorial"))
	assert.Equal(t, []string{"a", "b"}, SplitTags(",a,,b,"))
	assert.Empty(t, SplitTags(""))
	assert.Empty(t, SplitTags(" , "))
}

func TestContributionStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, ContributionStatus("ACCEPTED").Valid())
}

func TestFileUploadSubtype(t *testing.T) {
	f := &FileUpload{MIMEType: "video/mp4"}
	assert.Equal(t, "mp4", f.Subtype())
	assert.True(t, f.IsVideo())
	assert.False(t, f.IsImage())
}
