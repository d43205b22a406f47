package avatar

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRenderProducesSquarePNG(t *testing.T) {
	g, err := NewGenerator(128)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	data, initials, err := g.Render("anna", "smirnova")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if initials != "AS" {
		t.Fatalf("unexpected initials: got %q want %q", initials, "AS")
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("unexpected size: %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderFallsBackToPlaceholderInitial(t *testing.T) {
	g, err := NewGenerator(0)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	_, initials, err := g.Render("", " ")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if initials != "U" {
		t.Fatalf("unexpected initials: got %q want %q", initials, "U")
	}
}
