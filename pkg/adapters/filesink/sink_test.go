package filesink

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/vietthanhnv/create-karaoke-video/pkg/mocks"
)

func TestSinkEnabled(t *testing.T) {
	s := New("/debug", mocks.NewFileSystem())
	if !s.Enabled() {
		t.Error("file sink must report enabled")
	}
}

func TestSaveSceneJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := New("/debug", fs)

	if err := s.SaveSceneJSON(7, []byte(`{"lines":[]}`)); err != nil {
		t.Fatalf("SaveSceneJSON failed: %v", err)
	}
	data, ok := fs.GetFile("/debug/scenes/scene-000007.json")
	if !ok {
		t.Fatalf("scene file not written: %v", fs.GetAllFiles())
	}
	if string(data) != `{"lines":[]}` {
		t.Errorf("scene content: %s", data)
	}
}

func TestSaveRenderedFrameIsPNG(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := New("/debug", fs)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := s.SaveRenderedFrame(0, img); err != nil {
		t.Fatalf("SaveRenderedFrame failed: %v", err)
	}

	data, ok := fs.GetFile("/debug/frames/rendered/frame-000000.png")
	if !ok {
		t.Fatal("rendered frame not written")
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("decoded size: %v", b)
	}
}

func TestSaveRawFrameAndEncoderLog(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := New("/debug", fs)

	if err := s.SaveRawFrame(12, []byte{1, 2, 3}); err != nil {
		t.Fatalf("SaveRawFrame failed: %v", err)
	}
	if _, ok := fs.GetFile("/debug/frames/raw/frame-000012.bin"); !ok {
		t.Error("raw frame not written")
	}

	if err := s.SaveEncoderLog([]byte("frame=1\n")); err != nil {
		t.Fatalf("SaveEncoderLog failed: %v", err)
	}
	if data, ok := fs.GetFile("/debug/encoder.log"); !ok || string(data) != "frame=1\n" {
		t.Errorf("encoder log: %q ok=%v", data, ok)
	}
}
