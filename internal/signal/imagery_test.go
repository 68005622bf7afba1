package signal

import (
	"encoding/binary"
	"slices"
	"testing"
)

// tiffWithMake builds a minimal little-endian TIFF block whose IFD0 holds
// a single Make tag.
func tiffWithMake(cameraMake string) []byte {
	value := append([]byte(cameraMake), 0)
	buf := make([]byte, 0, 64)
	buf = append(buf, 'I', 'I', 0x2a, 0x00)
	buf = binary.LittleEndian.AppendUint32(buf, 8)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 0x010f)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
	buf = binary.LittleEndian.AppendUint32(buf, 26)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	return append(buf, value...)
}

func TestExtractImagery(t *testing.T) {
	t.Parallel()

	t.Run("images without metadata", func(t *testing.T) {
		t.Parallel()

		sig := ExtractImagery([][]byte{[]byte("not an image"), nil, {0xff, 0xd8, 0xff, 0xd9}})
		if sig.ImagesChecked != 2 {
			t.Errorf("expected 2 images checked, got %d", sig.ImagesChecked)
		}
		if sig.OriginalPhotos != 0 {
			t.Errorf("expected no original photos, got %d", sig.OriginalPhotos)
		}
	})

	t.Run("camera make is recorded", func(t *testing.T) {
		t.Parallel()

		sig := ExtractImagery([][]byte{tiffWithMake("Canon"), tiffWithMake("Canon"), []byte("stock")})
		if sig.ImagesChecked != 3 {
			t.Errorf("expected 3 images checked, got %d", sig.ImagesChecked)
		}
		if sig.OriginalPhotos != 2 {
			t.Errorf("expected 2 original photos, got %d", sig.OriginalPhotos)
		}
		if !slices.Equal(sig.CameraMakes, []string{"Canon"}) {
			t.Errorf("expected [Canon], got %v", sig.CameraMakes)
		}
	})

	t.Run("nothing to check", func(t *testing.T) {
		t.Parallel()

		if sig := ExtractImagery(nil); sig.ImagesChecked != 0 {
			t.Errorf("expected zero, got %+v", sig)
		}
	})
}
