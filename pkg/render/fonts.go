package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/akeil/annotate/internal/logging"
)

var fontsOnce sync.Once

// setupFonts registers the embedded Go fonts with draw2d
// so that text rendering does not depend on font files on disk.
func setupFonts() {
	fontsOnce.Do(func() {
		draw2d.SetFontCache(newGoFontCache())
	})
}

// goFontCache implements draw2d.FontCache on top of the Go font family.
type goFontCache struct {
	mx    sync.Mutex
	fonts map[string]*truetype.Font
}

func newGoFontCache() *goFontCache {
	return &goFontCache{fonts: make(map[string]*truetype.Font)}
}

func (g *goFontCache) Load(fd draw2d.FontData) (*truetype.Font, error) {
	g.mx.Lock()
	defer g.mx.Unlock()

	key := fontKey(fd)
	if f, ok := g.fonts[key]; ok {
		return f, nil
	}

	ttf := goregular.TTF
	switch {
	case fd.Family == draw2d.FontFamilyMono:
		ttf = gomono.TTF
	case fd.Style&draw2d.FontStyleBold != 0 && fd.Style&draw2d.FontStyleItalic != 0:
		ttf = gobolditalic.TTF
	case fd.Style&draw2d.FontStyleBold != 0:
		ttf = gobold.TTF
	case fd.Style&draw2d.FontStyleItalic != 0:
		ttf = goitalic.TTF
	}

	logging.Debug("Load font %q", key)
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %v", key, err)
	}
	g.fonts[key] = f
	return f, nil
}

func (g *goFontCache) Store(fd draw2d.FontData, f *truetype.Font) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.fonts[fontKey(fd)] = f
}

func fontKey(fd draw2d.FontData) string {
	return fmt.Sprintf("go-%d-%d", fd.Family, fd.Style)
}

// fontData maps an object's font family name to draw2d font data.
func fontData(family string) draw2d.FontData {
	fd := draw2d.FontData{Name: "go", Family: draw2d.FontFamilySans, Style: draw2d.FontStyleNormal}
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		fd.Family = draw2d.FontFamilyMono
	case strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		fd.Family = draw2d.FontFamilySerif
	}
	if strings.Contains(f, "bold") {
		fd.Style |= draw2d.FontStyleBold
	}
	if strings.Contains(f, "italic") {
		fd.Style |= draw2d.FontStyleItalic
	}
	return fd
}
