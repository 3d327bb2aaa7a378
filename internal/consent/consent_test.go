package consent

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signaturePNG builds a small PNG with a diagonal stroke and returns it as a
// data URL, the way the signature pad submits it.
func signaturePNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width && i < height; i++ {
		img.Set(i, i, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fakeUploader struct {
	key  string
	data []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, pdfData []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.data = pdfData
	return "https://store.example/" + key, nil
}

func TestDecodeSignature(t *testing.T) {
	img, err := DecodeSignature(signaturePNG(t, 300, 150))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestDecodeSignatureBareBase64(t *testing.T) {
	dataURL := signaturePNG(t, 20, 10)
	bare := strings.TrimPrefix(dataURL, "data:image/png;base64,")

	img, err := DecodeSignature(bare)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
}

func TestDecodeSignatureErrors(t *testing.T) {
	_, err := DecodeSignature("")
	assert.ErrorIs(t, err, ErrEmptySignature)

	_, err = DecodeSignature("data:image/jpeg;base64,AAAA")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = DecodeSignature("data:image/png;base64,not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Valid base64, not a PNG.
	_, err = DecodeSignature("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello")))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeSignatureScalesDown(t *testing.T) {
	img, err := DecodeSignature(signaturePNG(t, 1200, 400))
	require.NoError(t, err)
	assert.Equal(t, maxSignatureWidth, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestBuildPDF(t *testing.T) {
	img, err := DecodeSignature(signaturePNG(t, 300, 150))
	require.NoError(t, err)

	data, err := BuildPDF("Maria Gomez", img)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 500)
}

func TestSign(t *testing.T) {
	up := &fakeUploader{}
	svc := NewService(up, "consent/")

	receipt, err := svc.Sign(context.Background(), "  Maria Gomez  ", signaturePNG(t, 300, 150))
	require.NoError(t, err)

	assert.Equal(t, "Maria Gomez", receipt.ClientName)
	assert.True(t, strings.HasPrefix(receipt.Key, "consent/consent_"))
	assert.True(t, strings.HasSuffix(receipt.Key, ".pdf"))
	assert.Equal(t, "https://store.example/"+receipt.Key, receipt.URL)
	assert.True(t, bytes.HasPrefix(up.data, []byte("%PDF")))
}

func TestSignValidation(t *testing.T) {
	svc := NewService(&fakeUploader{}, "consent/")

	_, err := svc.Sign(context.Background(), "", signaturePNG(t, 10, 10))
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = svc.Sign(context.Background(), "Maria", "")
	assert.ErrorIs(t, err, ErrEmptySignature)
}

func TestSignUploadFailure(t *testing.T) {
	up := &fakeUploader{err: errors.New("bucket offline")}
	svc := NewService(up, "consent/")

	_, err := svc.Sign(context.Background(), "Maria", signaturePNG(t, 10, 10))
	assert.ErrorContains(t, err, "bucket offline")
}
