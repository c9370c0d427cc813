package images

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tutortoise/classification-async/classification"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(8, 6, c), path))
	return path
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	b := writeImage(t, dir, "b.png", color.White)
	a := writeImage(t, dir, "a.bmp", color.Black)
	writeImage(t, dir, ".hidden.png", color.White)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	files, err := ExpandInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	files, err = ExpandInputs(b)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, files)

	_, err = ExpandInputs(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBatch_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	red := writeImage(t, dir, "red.png", color.NRGBA{R: 200, G: 10, B: 30, A: 255})
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	blue := writeImage(t, dir, "blue.bmp", color.NRGBA{R: 5, G: 60, B: 250, A: 255})

	samples, err := LoadBatch([]string{red, bad, blue}, Spec{Width: 4, Height: 3, Channels: 3, Order: RGB})
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, red, samples[0].Path)
	assert.Equal(t, blue, samples[1].Path)
	for _, s := range samples {
		assert.Equal(t, 4, s.Width)
		assert.Equal(t, 3, s.Height)
		assert.Equal(t, 3, s.Channels)
		assert.Len(t, s.Pix, 4*3*3)
	}
	assert.Equal(t, []byte{200, 10, 30}, samples[0].Pix[:3])
	assert.Equal(t, []byte{5, 60, 250}, samples[1].Pix[33:36])
}

func TestLoadBatch_BGRAndGray(t *testing.T) {
	dir := t.TempDir()
	p := writeImage(t, dir, "c.png", color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	samples, err := LoadBatch([]string{p}, Spec{Width: 2, Height: 2, Channels: 3, Order: BGR})
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1, 3, 2, 1, 3, 2, 1, 3, 2, 1}, samples[0].Pix)

	gray := writeImage(t, dir, "g.png", color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	samples, err = LoadBatch([]string{gray}, Spec{Width: 2, Height: 2, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 100, 100, 100}, samples[0].Pix)
}

func TestLoadBatch_NoValidInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xd8, 0x00}, 0o644))

	_, err := LoadBatch([]string{bad, filepath.Join(dir, "missing.png")}, Spec{Width: 2, Height: 2, Channels: 3})
	assert.ErrorIs(t, err, classification.ErrNoValidInput)
}

func TestLoadBatch_InvalidSpec(t *testing.T) {
	_, err := LoadBatch(nil, Spec{Width: 0, Height: 2, Channels: 3})
	assert.Error(t, err)
	_, err = LoadBatch(nil, Spec{Width: 2, Height: 2, Channels: 4})
	assert.Error(t, err)
}

func TestInterleave_Gradient(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60}, Interleave(img, Spec{Width: 2, Height: 1, Channels: 3}))
}

func TestParseChannelOrder(t *testing.T) {
	o, err := ParseChannelOrder("BGR")
	require.NoError(t, err)
	assert.Equal(t, BGR, o)
	_, err = ParseChannelOrder("rgba")
	assert.Error(t, err)
}
