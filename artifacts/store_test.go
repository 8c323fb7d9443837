package artifacts

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// TestSaveAndRead verifies the write/read round trip.
func TestSaveAndRead(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02}
	path, err := store.Save(StageImage, "png", payload)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Read(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload corrupted in round trip")
	}
}

// TestSaveNamingScheme verifies the {stage}_{timestamp}_{token}.{ext} format.
func TestSaveNamingScheme(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Save(StageModel, "obj", []byte("v 0 0 0"))
	if err != nil {
		t.Fatal(err)
	}

	name := filepath.Base(path)
	pattern := regexp.MustCompile(`^model_\d{8}_\d{6}_[0-9a-f-]{8}\.obj$`)
	if !pattern.MatchString(name) {
		t.Errorf("filename %q does not match naming scheme", name)
	}
}

// TestSaveNamesAreUnique verifies same-quantum saves do not collide.
func TestSaveNamesAreUnique(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		path, err := store.Save(StageImage, "png", []byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}
		if seen[path] {
			t.Fatalf("duplicate artifact path: %s", path)
		}
		seen[path] = true
	}
}

// TestNewStoreCreatesDirectory verifies missing directories are created.
func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs", "nested")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("store creation failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

// TestReadMissingFile verifies reads of deleted artifacts surface an error
// the caller can tolerate.
func TestReadMissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read(filepath.Join(store.Dir(), "gone.png")); err == nil {
		t.Error("expected error for missing artifact")
	}
}

// encodeTestPNG produces a PNG of the given size for preview tests.
func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x % 256), A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// TestPreviewPNGDownscales verifies large artifacts are scaled into bounds.
func TestPreviewPNGDownscales(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Save(StageImage, "png", encodeTestPNG(t, 1024, 512))
	if err != nil {
		t.Fatal(err)
	}

	previewData, err := store.PreviewPNG(path, 256)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(previewData))
	if err != nil {
		t.Fatalf("preview is not valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 256 || bounds.Dy() != 128 {
		t.Errorf("unexpected preview size %dx%d", bounds.Dx(), bounds.Dy())
	}
}

// TestPreviewPNGSmallImageUnchanged verifies in-bounds images keep their size.
func TestPreviewPNGSmallImageUnchanged(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Save(StageImage, "png", encodeTestPNG(t, 64, 32))
	if err != nil {
		t.Fatal(err)
	}

	previewData, err := store.PreviewPNG(path, 256)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(previewData))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("small image was resized to %v", img.Bounds())
	}
}

// TestPreviewPNGInvalidData verifies corrupt artifacts surface ErrInvalidImage.
func TestPreviewPNGInvalidData(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Save(StageImage, "png", []byte("not a png"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.PreviewPNG(path, 256)
	if err == nil {
		t.Fatal("expected error for corrupt image")
	}
	if !strings.Contains(err.Error(), "invalid image data") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestDecodeImageEmpty verifies empty payloads are rejected.
func TestDecodeImageEmpty(t *testing.T) {
	if _, err := DecodeImage(nil); err != ErrEmptyImage {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}
