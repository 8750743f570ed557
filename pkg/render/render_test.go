package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/imaging"
	"github.com/akeil/annotate/pkg/scene"
	"github.com/akeil/annotate/pkg/textrun"
)

// samplePDF creates an A4 page followed by a US Letter page.
func samplePDF(t *testing.T) []byte {
	t.Helper()
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetFont("helvetica", "", 12)
	doc.AddPage()
	doc.Text(72, 72, "First page")
	doc.AddPageFormat("P", gofpdf.SizeType{Wd: 612, Ht: 792})
	doc.Text(72, 72, "Second page")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestRasterizeRect(t *testing.T) {
	c := DefaultContext()
	s := scene.New(100, 100)
	s.Add(scene.NewRect(10, 10, 40, 40, scene.None, scene.Red))

	img, err := c.Rasterize(s, 100, 100)
	require.NoError(t, err)

	r, g, b, a := img.At(30, 30).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff), a)

	_, _, _, a = img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0), a, "background must stay transparent")
}

func TestRasterizeOpacity(t *testing.T) {
	c := DefaultContext()
	s := scene.New(50, 50)
	o := scene.NewRect(0, 0, 50, 50, scene.None, scene.Blue)
	o.Opacity = 0.5
	s.Add(o)

	img, err := c.Rasterize(s, 50, 50)
	require.NoError(t, err)
	_, _, _, a := img.At(25, 25).RGBA()
	assert.InDelta(t, 0x8080, a, 0x300)
}

func TestRasterizePathAndText(t *testing.T) {
	c := DefaultContext()

	s := scene.New(200, 100)
	s.Add(scene.NewPath([]scene.Point{{10, 10}, {50, 60}, {90, 20}, {150, 80}}, scene.Black, 4))
	img, err := c.Rasterize(s, 200, 100)
	require.NoError(t, err)
	assert.False(t, imaging.IsBlank(img))

	s = scene.New(200, 100)
	s.Add(scene.NewText(10, 10, "Hello", 24, scene.Black))
	img, err = c.Rasterize(s, 200, 100)
	require.NoError(t, err)
	assert.False(t, imaging.IsBlank(img))

	// a single dot
	s = scene.New(20, 20)
	s.Add(scene.NewPath([]scene.Point{{10, 10}}, scene.Black, 6))
	img, err = c.Rasterize(s, 20, 20)
	require.NoError(t, err)
	_, _, _, a := img.At(10, 10).RGBA()
	assert.NotZero(t, a)

	_, err = c.Rasterize(s, 0, 20)
	assert.Error(t, err)
}

func TestPNG(t *testing.T) {
	c := DefaultContext()
	s := scene.New(300, 200)
	s.Add(scene.NewEllipse(50, 50, 100, 50, scene.Black, scene.None))

	var buf bytes.Buffer
	require.NoError(t, c.PNG(s, 150, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestPageSizes(t *testing.T) {
	sizes, err := PageSizes(bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.InDelta(t, 595.28, sizes[0].Width, 0.1)
	assert.InDelta(t, 841.89, sizes[0].Height, 0.1)
	assert.InDelta(t, 612, sizes[1].Width, 0.1)
	assert.InDelta(t, 792, sizes[1].Height, 0.1)

	_, err = PageSizes(bytes.NewReader([]byte("garbage")))
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	src := samplePDF(t)
	sizes, err := PageSizes(bytes.NewReader(src))
	require.NoError(t, err)

	// displayed at 1.5x the native size
	s := scene.New(sizes[0].Width*1.5, sizes[0].Height*1.5)
	s.Add(scene.NewRect(100, 100, 300, 150, scene.Red, scene.None))
	s.Add(scene.NewPath([]scene.Point{{100, 400}, {200, 450}, {300, 420}}, scene.Blue, 3))
	s.Add(scene.NewText(100, 600, "Note", 20, scene.Black))

	edit := textrun.Edit{
		Run:         textrun.Run{Page: 2, Text: "Second page", FontSize: 12, X: 72, Y: 792 - 72, Width: 64},
		Replacement: "Zweite Seite ü",
	}

	pages := []Page{
		{Number: 1, Size: sizes[0], Scene: s},
		{Number: 2, Size: sizes[1], Edits: []textrun.Edit{edit}},
	}

	c := DefaultContext()
	var out bytes.Buffer
	require.NoError(t, c.Flatten(src, pages, "sample.pdf", &out))

	require.NoError(t, ValidatePDF(bytes.NewReader(out.Bytes())))
	got, err := PageSizes(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range got {
		assert.InDelta(t, sizes[i].Width, got[i].Width, 0.5)
		assert.InDelta(t, sizes[i].Height, got[i].Height, 0.5)
	}
}

func TestRasterizePageScalesToPoints(t *testing.T) {
	c := NewContext(2, false)

	// shown at half the page size, rendered at 2px per point
	s := scene.New(300, 400)
	s.Add(scene.NewRect(30, 40, 60, 80, scene.None, scene.Red))

	img, err := c.rasterizePage(s, Size{Width: 600, Height: 800})
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 1600, img.Bounds().Dy())

	// the rect covers 120..360 x 160..480 pixels
	red := func(x, y int) bool {
		r, g, b, a := img.At(x, y).RGBA()
		return r == 0xffff && g == 0 && b == 0 && a == 0xffff
	}
	assert.True(t, red(240, 320), "center")
	assert.True(t, red(125, 165), "top left corner")
	assert.True(t, red(355, 475), "bottom right corner")

	for _, p := range [][2]int{{115, 155}, {365, 320}, {240, 485}, {60, 80}} {
		_, _, _, a := img.At(p[0], p[1]).RGBA()
		assert.Equal(t, uint32(0), a, "outside at %v", p)
	}
}

func TestFlattenStreamedSource(t *testing.T) {
	// pdfcpu defaults to object streams and a cross reference stream
	var packed bytes.Buffer
	require.NoError(t, api.Optimize(bytes.NewReader(samplePDF(t)), &packed, pdfConfig()))
	src := packed.Bytes()
	require.Contains(t, string(src), "/XRef")

	sizes, err := PageSizes(bytes.NewReader(src))
	require.NoError(t, err)

	s := scene.New(sizes[0].Width, sizes[0].Height)
	s.Add(scene.NewRect(50, 50, 100, 100, scene.Red, scene.None))
	pages := []Page{
		{Number: 1, Size: sizes[0], Scene: s},
		{Number: 2, Size: sizes[1]},
	}

	var out bytes.Buffer
	require.NoError(t, NewContext(1, true).Flatten(src, pages, "", &out))

	got, err := PageSizes(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFlattenRotatedPage(t *testing.T) {
	var rotated bytes.Buffer
	require.NoError(t, api.Rotate(bytes.NewReader(samplePDF(t)), &rotated, 90, []string{"1"}, pdfConfig()))
	src := rotated.Bytes()

	boxes, err := readPageBoxes(src)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, 90, boxes[0].Rotation)
	assert.InDelta(t, 595.28, boxes[0].Width, 0.1)
	assert.Equal(t, 0, boxes[1].Rotation)

	sizes, err := PageSizes(bytes.NewReader(src))
	require.NoError(t, err)
	assert.InDelta(t, 841.89, sizes[0].Width, 0.1)
	assert.InDelta(t, 595.28, sizes[0].Height, 0.1)
	assert.Equal(t, boxes[0].Display(), sizes[0])

	s := scene.New(sizes[0].Width, sizes[0].Height)
	s.Add(scene.NewRect(700, 450, 100, 100, scene.None, scene.Blue))
	edit := textrun.Edit{
		Run:         textrun.Run{Page: 1, Text: "First page", FontSize: 12, X: 72, Y: 841.89 - 72},
		Replacement: "Erste Seite",
	}
	pages := []Page{
		{Number: 1, Size: sizes[0], Scene: s, Edits: []textrun.Edit{edit}},
		{Number: 2, Size: sizes[1]},
	}

	var out bytes.Buffer
	require.NoError(t, NewContext(1, true).Flatten(src, pages, "", &out))

	// the rotation is baked into the page content
	got, err := readPageBoxes(out.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Rotation)
	assert.InDelta(t, 841.89, got[0].Width, 0.5)
	assert.InDelta(t, 595.28, got[0].Height, 0.5)
	assert.InDelta(t, 612, got[1].Width, 0.5)
	assert.InDelta(t, 792, got[1].Height, 0.5)
}

func TestNormalizeRotation(t *testing.T) {
	cases := map[int]int{0: 0, 90: 90, -90: 270, 450: 90, -180: 180, 360: 0}
	for in, want := range cases {
		assert.Equal(t, want, normalizeRotation(in), "%d", in)
	}

	b := pageBox{Width: 100, Height: 200, Rotation: 270}
	assert.Equal(t, Size{Width: 200, Height: 100}, b.Display())
	b.Rotation = 180
	assert.Equal(t, Size{Width: 100, Height: 200}, b.Display())
}

func TestFlattenWithoutAnnotations(t *testing.T) {
	src := samplePDF(t)
	sizes, err := PageSizes(bytes.NewReader(src))
	require.NoError(t, err)

	pages := []Page{
		{Number: 1, Size: sizes[0], Scene: scene.New(100, 100)},
		{Number: 2, Size: sizes[1]},
	}

	var out bytes.Buffer
	require.NoError(t, DefaultContext().Flatten(src, pages, "", &out))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))

	got, err := PageSizes(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	err = DefaultContext().Flatten(src, nil, "", &out)
	assert.Error(t, err)
}

func TestFlattenBadPageSize(t *testing.T) {
	var out bytes.Buffer
	err := DefaultContext().Flatten(samplePDF(t), []Page{{Number: 1}}, "", &out)
	assert.Error(t, err)
	assert.Zero(t, out.Len(), "nothing is written on failure")

	size := Size{Width: 612, Height: 792}
	err = DefaultContext().Flatten(samplePDF(t), []Page{{Number: 3, Size: size}}, "", &out)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, out.Len())
}

func TestCoreFont(t *testing.T) {
	cases := []struct {
		name, family, style string
	}{
		{"Helvetica", "helvetica", ""},
		{"ABCDEF+TimesNewRoman-BoldItalic", "times", "BI"},
		{"Courier-Oblique", "courier", "I"},
		{"DejaVuSans-Bold", "helvetica", "B"},
		{"", "helvetica", ""},
	}
	for _, c := range cases {
		f, s := coreFont(c.name)
		assert.Equal(t, c.family, f, c.name)
		assert.Equal(t, c.style, s, c.name)
	}
}

func TestDontPanic(t *testing.T) {
	err := dontPanic(func() { panic("boom") })
	assert.EqualError(t, err, "recovered from: boom")
	assert.NoError(t, dontPanic(func() {}))
}
