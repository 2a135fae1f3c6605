package share

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLink(t *testing.T) {
	link, err := SessionLink("http://localhost:8080/", "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/chat/abc-123", link)
}

func TestSessionLinkRejectsBadInput(t *testing.T) {
	_, err := SessionLink("localhost", "abc")
	assert.Error(t, err)

	_, err = SessionLink("http://localhost:8080", " ")
	assert.Error(t, err)
}

func TestQRCodeIsPNG(t *testing.T) {
	png, err := QRCode("http://localhost:8080/chat/abc", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
