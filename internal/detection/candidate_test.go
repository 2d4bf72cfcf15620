package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/shelfscan/internal/geometry"
)

func TestEvaluate_Rules(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		spec contourSpec
		want Rejection
	}{
		{"too few points", contourSpec{points: 3, rect: axisRect(50, 50, 100, 50, 1).rect, area: 5000}, RejectTooFewPoints},
		{"degenerate width", axisRect(50, 50, 1, 900, 1), RejectDegenerateRect},
		{"degenerate height", axisRect(50, 50, 900, 0.5, 1), RejectDegenerateRect},
		{"too small", axisRect(50, 50, 20, 20, 1), RejectTooSmall},
		{"too elongated", axisRect(200, 200, 10, 400, 1), RejectTooElongated},
		{"not rectangular", axisRect(100, 100, 100, 50, 0.5), RejectNotRectangular},
		{"accepted", axisRect(100, 100, 100, 50, 1), Accepted},
		{"at min area", axisRect(100, 100, 40, 20, 1), Accepted},
		{"at max aspect", axisRect(300, 100, 500, 20, 1), Accepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			c := &fakeContour{p: p, spec: tt.spec}

			cand, reason, err := Evaluate(p, c, 1000, 1000, th)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if reason != tt.want {
				t.Errorf("reason: got %v, want %v", reason, tt.want)
			}
			if (cand != nil) != (tt.want == Accepted) {
				t.Errorf("candidate presence: got %v for reason %v", cand != nil, reason)
			}
		})
	}
}

func TestEvaluate_StopsAtFirstFailingRule(t *testing.T) {
	p := &fakeProvider{}

	few := &fakeContour{p: p, spec: contourSpec{points: 2}}
	if _, _, err := Evaluate(p, few, 100, 100, DefaultThresholds()); err != nil {
		t.Fatal(err)
	}
	if p.rectCalls != 0 || p.areaCalls != 0 {
		t.Errorf("too-few-points contour was measured: rect=%d area=%d", p.rectCalls, p.areaCalls)
	}

	small := &fakeContour{p: p, spec: axisRect(10, 10, 5, 5, 1)}
	if _, _, err := Evaluate(p, small, 100, 100, DefaultThresholds()); err != nil {
		t.Fatal(err)
	}
	if p.areaCalls != 0 {
		t.Errorf("contour area computed for a rejected rectangle")
	}
}

func TestEvaluate_ScoreAndFields(t *testing.T) {
	p := &fakeProvider{}
	c := &fakeContour{p: p, spec: axisRect(150, 100, 100, 50, 1)}

	cand, _, err := Evaluate(p, c, 400, 300, DefaultThresholds())
	if err != nil || cand == nil {
		t.Fatalf("expected candidate, got %v, %v", cand, err)
	}

	wantScore := 0.5*(5000/(5000+1e-6)) + 0.5*(1-2.0/25)
	if math.Abs(cand.Score-wantScore) > 1e-9 {
		t.Errorf("score: got %v, want %v", cand.Score, wantScore)
	}
	if cand.Area != 5000 {
		t.Errorf("area: got %v, want 5000", cand.Area)
	}
	if cand.ImgW != 400 || cand.ImgH != 300 {
		t.Errorf("img size: got %dx%d", cand.ImgW, cand.ImgH)
	}

	wantPoly := Polygon{{100, 75}, {200, 75}, {200, 125}, {100, 125}}
	if cand.BoxImg != wantPoly {
		t.Errorf("polygon: got %v, want %v", cand.BoxImg, wantPoly)
	}
	if cand.BBoxImg != (BBox{100, 75, 200, 125}) {
		t.Errorf("bbox: got %v", cand.BBoxImg)
	}
	if cand.Numbers == nil || len(cand.Numbers) != 0 || cand.Text != "" {
		t.Errorf("OCR fields should start empty, got %q %v", cand.Text, cand.Numbers)
	}
}

func TestEvaluate_ClampsToBitmap(t *testing.T) {
	p := &fakeProvider{}
	spec := contourSpec{
		points: 4,
		rect:   geometry.NewRotatedRect(geometry.Point{X: 10, Y: 10}, 60, 40, 30),
		area:   2400,
	}
	c := &fakeContour{p: p, spec: spec}

	cand, _, err := Evaluate(p, c, 50, 40, DefaultThresholds())
	if err != nil || cand == nil {
		t.Fatalf("expected candidate, got %v, %v", cand, err)
	}

	for i, pt := range cand.BoxImg {
		if pt[0] < 0 || pt[0] >= 50 || pt[1] < 0 || pt[1] >= 40 {
			t.Errorf("corner %d out of bitmap: %v", i, pt)
		}
	}
	b := cand.BBoxImg
	if b[0] < 0 || b[1] < 0 || b[2] >= 50 || b[3] >= 40 || b[0] > b[2] || b[1] > b[3] {
		t.Errorf("bbox outside bitmap: %v", b)
	}
	if b != envelope(cand.BoxImg) {
		t.Errorf("bbox %v is not the envelope of %v", b, cand.BoxImg)
	}
}

func TestEvaluate_AcceptedSatisfyThresholds(t *testing.T) {
	th := Thresholds{MinArea: 100, MinRectangularity: 0.8, MaxAspect: 5}
	p := &fakeProvider{}

	for w := 2.0; w <= 80; w += 7 {
		for h := 2.0; h <= 80; h += 9 {
			for _, fill := range []float64{0.5, 0.79, 0.8, 0.95, 1} {
				c := &fakeContour{p: p, spec: axisRect(100, 100, w, h, fill)}
				cand, _, err := Evaluate(p, c, 300, 300, th)
				if err != nil {
					t.Fatal(err)
				}
				if cand == nil {
					continue
				}
				aspect := math.Max(w, h) / math.Max(1, math.Min(w, h))
				rect := fill * w * h / (w*h + 1e-6)
				if aspect > th.MaxAspect || rect < th.MinRectangularity || cand.Area < th.MinArea {
					t.Errorf("accepted %vx%v fill %v: aspect %v rect %v", w, h, fill, aspect, rect)
				}
				if cand.Score < 0 || cand.Score > 1 {
					t.Errorf("score %v outside [0,1]", cand.Score)
				}
			}
		}
	}
}

func TestRejectionString(t *testing.T) {
	if RejectTooSmall.String() != "too_small" || Accepted.String() != "accepted" {
		t.Errorf("unexpected names: %s, %s", RejectTooSmall, Accepted)
	}
	if Rejection(99).String() != "unknown" {
		t.Errorf("unknown rejection: got %s", Rejection(99))
	}
}
