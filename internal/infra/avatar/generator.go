package avatar

import (
	"bytes"
	"fmt"
	"image/color"
	"math/rand"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/ivankudzin/dochub/internal/domain/model"
)

const DefaultSize = 640

var palette = []color.RGBA{
	{R: 41, G: 128, B: 185, A: 255},
	{R: 39, G: 174, B: 96, A: 255},
	{R: 142, G: 68, B: 173, A: 255},
	{R: 211, G: 84, B: 0, A: 255},
	{R: 192, G: 57, B: 43, A: 255},
	{R: 52, G: 73, B: 94, A: 255},
	{R: 230, G: 126, B: 34, A: 255},
	{R: 22, G: 160, B: 133, A: 255},
	{R: 155, G: 89, B: 182, A: 255},
	{R: 241, G: 196, B: 15, A: 255},
}

// Generator renders square PNG avatars with the user's initials on a
// background picked from a fixed palette.
type Generator struct {
	size int
	font *truetype.Font

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(size int) (*Generator, error) {
	if size <= 0 {
		size = DefaultSize
	}

	font, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse avatar font: %w", err)
	}

	return &Generator{
		size: size,
		font: font,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Render returns the PNG bytes and the initials drawn on it.
func (g *Generator) Render(firstName, lastName string) ([]byte, string, error) {
	initials := model.Initials(firstName, lastName)

	dc := gg.NewContext(g.size, g.size)
	dc.SetColor(g.pickColor())
	dc.Clear()

	dc.SetFontFace(truetype.NewFace(g.font, &truetype.Options{Size: float64(g.size) * 0.4}))
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, float64(g.size)/2, float64(g.size)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, "", fmt.Errorf("encode avatar png: %w", err)
	}

	return buf.Bytes(), initials, nil
}

func (g *Generator) pickColor() color.RGBA {
	g.mu.Lock()
	defer g.mu.Unlock()
	return palette[g.rnd.Intn(len(palette))]
}
