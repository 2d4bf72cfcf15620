package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestGrayscale(t *testing.T) {
	img := createInMemoryImage(20, 10, color.RGBA{255, 255, 255, 255})
	gray := Grayscale(img)

	if gray.Bounds().Dx() != 20 || gray.Bounds().Dy() != 10 {
		t.Fatalf("dimensions: got %v", gray.Bounds())
	}
	if v := gray.GrayAt(5, 5).Y; v != 255 {
		t.Errorf("white pixel: got %d, want 255", v)
	}
}

func TestGrayscale_SubImage(t *testing.T) {
	src := createRectImage(40, 30, image.Rect(10, 10, 20, 20), color.RGBA{128, 128, 128, 255}, color.White)
	sub := src.SubImage(image.Rect(5, 5, 25, 25))

	gray := Grayscale(sub)

	if gray.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds: got %v, want (0,0)-(20,20)", gray.Bounds())
	}
	if v := gray.GrayAt(0, 0).Y; v != 255 {
		t.Errorf("white corner: got %d, want 255", v)
	}
	if v := int(gray.GrayAt(10, 10).Y); v < 127 || v > 129 {
		t.Errorf("mid gray: got %d, want 128 +/- 1", v)
	}
}

func TestAdaptiveThreshold_DarkRectangle(t *testing.T) {
	img := createRectImage(100, 100, image.Rect(20, 20, 80, 80), color.Black, color.White)
	bin := AdaptiveThreshold(Grayscale(img), 35, 10)

	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"rectangle border", 21, 50, 255},
		{"rectangle corner", 20, 20, 255},
		{"deep interior", 50, 50, 0},
		{"background", 5, 5, 0},
		{"just outside", 18, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bin.GrayAt(tt.x, tt.y).Y; got != tt.want {
				t.Errorf("pixel (%d,%d): got %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestAdaptiveThreshold_Uniform(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255})
	bin := AdaptiveThreshold(Grayscale(img), 35, 10)

	if n := countSet(bin); n != 0 {
		t.Errorf("uniform image: got %d foreground pixels, want 0", n)
	}
}

func TestAdaptiveThreshold_Empty(t *testing.T) {
	bin := AdaptiveThreshold(image.NewGray(image.Rect(0, 0, 0, 0)), 35, 10)
	if !bin.Bounds().Empty() {
		t.Errorf("expected empty output, got %v", bin.Bounds())
	}
}

func TestMorphClose_BridgesGap(t *testing.T) {
	m := createMask(40, 20, image.Rect(0, 10, 31, 11))
	m.SetGray(15, 10, color.Gray{0})

	closed := MorphClose(m, 3)

	if got := closed.GrayAt(15, 10).Y; got != 255 {
		t.Errorf("gap pixel: got %d, want 255", got)
	}
	if got := closed.GrayAt(15, 8).Y; got != 0 {
		t.Errorf("pixel above line: got %d, want 0", got)
	}
	if got := closed.GrayAt(35, 10).Y; got != 0 {
		t.Errorf("pixel past line end: got %d, want 0", got)
	}
}

func TestMorphClose_ZeroKernel(t *testing.T) {
	m := createMask(10, 10, image.Rect(2, 2, 5, 5))
	closed := MorphClose(m, 1)

	if countSet(closed) != countSet(m) {
		t.Errorf("kernel 1 should be identity: got %d set, want %d", countSet(closed), countSet(m))
	}
}

func TestMorphClose_WideKernel(t *testing.T) {
	// Two blocks 4 pixels apart on a 5x5 kernel close into one solid bar.
	m := createMask(60, 30, image.Rect(10, 10, 25, 20))
	for y := 10; y < 20; y++ {
		for x := 29; x < 45; x++ {
			m.SetGray(x, y, color.Gray{255})
		}
	}

	closed := MorphClose(m, 5)

	for x := 25; x < 29; x++ {
		if got := closed.GrayAt(x, 15).Y; got != 255 {
			t.Errorf("gap pixel (%d,15): got %d, want 255", x, got)
		}
	}
	if got := closed.GrayAt(27, 5).Y; got != 0 {
		t.Errorf("pixel above gap: got %d, want 0", got)
	}
	if got := closed.GrayAt(50, 15).Y; got != 0 {
		t.Errorf("pixel past bar: got %d, want 0", got)
	}
	if got := closed.GrayAt(10, 10).Y; got != 255 {
		t.Errorf("block corner: got %d, want 255", got)
	}
}

func TestMorphClose_PreservesBorderForeground(t *testing.T) {
	m := createMask(20, 20, image.Rect(0, 0, 20, 20))

	closed := MorphClose(m, 3)

	if countSet(closed) != 400 {
		t.Errorf("full mask: got %d set, want 400", countSet(closed))
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
