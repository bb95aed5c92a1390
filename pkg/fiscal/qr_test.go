package fiscal

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannablePayloadIsRenderablePNG(t *testing.T) {
	doc := testDocument()

	uri, err := ScannablePayload(doc, AuthenticationCode(doc))
	require.NoError(t, err)

	encoded := strings.TrimPrefix(uri, "data:image/png;base64,")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	require.True(t, len(raw) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, raw[:8])
}

func TestScannablePayloadQuietZoneIsOneModule(t *testing.T) {
	doc := testDocument()

	uri, err := ScannablePayload(doc, AuthenticationCode(doc))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	bounds := img.Bounds()
	dark := func(x, y int) bool {
		r, _, _, _ := img.At(x, y).RGBA()
		return r == 0
	}

	// Locate the top-left corner of the finder pattern.
	minX, minY := -1, -1
	for y := bounds.Min.Y; y < bounds.Max.Y && minY < 0; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if dark(x, y) {
				minX, minY = x, y
				break
			}
		}
	}
	require.Greater(t, minY, 0, "symbol must not touch the image edge")
	assert.Equal(t, minX, minY)

	// The finder pattern is seven modules wide, which pins the module size:
	// a margin of exactly one module means the run is seven times the offset.
	run := 0
	for x := minX; x < bounds.Max.X && dark(x, minY); x++ {
		run++
	}
	assert.Equal(t, 7*minX, run)

	// Opposite edges carry the same margin.
	for i := 0; i < bounds.Max.X; i++ {
		assert.False(t, dark(i, bounds.Max.Y-1), "bottom edge must stay white")
		assert.False(t, dark(bounds.Max.X-1, i), "right edge must stay white")
	}
}

func TestScannablePayloadDeterministic(t *testing.T) {
	doc := testDocument()
	code := AuthenticationCode(doc)

	first, err := ScannablePayload(doc, code)
	require.NoError(t, err)
	second, err := ScannablePayload(doc, code)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
