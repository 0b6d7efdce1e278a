package compositor

import (
	"testing"

	"github.com/Carmen-Shannon/veil/engine/settings"
)

func rgbNear(a, b RGB) bool {
	for i := range a {
		if !near32(a[i], b[i]) {
			return false
		}
	}
	return true
}

func identity() settings.PostProcessParams {
	return settings.PostProcessParams{Sharpness: 0, Contrast: 1, Brightness: 0, Saturation: 1, VerticalScale: 1}
}

func TestFilterIdentity(t *testing.T) {
	n := [9]RGB{
		{0.1, 0.2, 0.3}, {0.9, 0.1, 0.5}, {0, 0, 0},
		{1, 1, 1}, {0.25, 0.5, 0.75}, {0.3, 0.3, 0.3},
		{0.6, 0.2, 0.1}, {0.4, 0.4, 0.9}, {0.7, 0.8, 0.9},
	}
	if got := Filter(n, identity()); !rgbNear(got, n[4]) {
		t.Errorf("identity filter = %v, want %v", got, n[4])
	}
}

func TestFilterSteps(t *testing.T) {
	gray := RGB{0.5, 0.5, 0.5}
	tests := []struct {
		name string
		n    [9]RGB
		mod  func(*settings.PostProcessParams)
		want RGB
	}{
		{
			name: "sharpen flat region is a no-op",
			n:    Uniform(RGB{0.2, 0.4, 0.6}),
			mod:  func(p *settings.PostProcessParams) { p.Sharpness = 1 },
			want: RGB{0.2, 0.4, 0.6},
		},
		{
			name: "sharpen bright center",
			n: func() [9]RGB {
				n := Uniform(RGB{0.2, 0.2, 0.2})
				n[4] = RGB{0.6, 0.6, 0.6}
				return n
			}(),
			// blur = 0.25*0.6 + 0.75*0.2 = 0.3; 0.6 + (0.6-0.3)*0.5 = 0.75
			mod:  func(p *settings.PostProcessParams) { p.Sharpness = 0.5 },
			want: RGB{0.75, 0.75, 0.75},
		},
		{
			name: "contrast",
			n:    Uniform(RGB{0.7, 0.3, 0.5}),
			mod:  func(p *settings.PostProcessParams) { p.Contrast = 1.5 },
			want: RGB{0.8, 0.2, 0.5},
		},
		{
			name: "brightness clamps",
			n:    Uniform(RGB{0.8, 0.1, 0.5}),
			mod:  func(p *settings.PostProcessParams) { p.Brightness = 0.3 },
			want: RGB{1, 0.4, 0.8},
		},
		{
			name: "desaturate to luma",
			n:    Uniform(RGB{1, 0, 0}),
			mod:  func(p *settings.PostProcessParams) { p.Saturation = 0 },
			want: RGB{0.299, 0.299, 0.299},
		},
		{
			name: "gray is saturation invariant",
			n:    Uniform(gray),
			mod:  func(p *settings.PostProcessParams) { p.Saturation = 2 },
			want: gray,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := identity()
			tt.mod(&p)
			if got := Filter(tt.n, p); !rgbNear(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterOrder(t *testing.T) {
	// Contrast before brightness: (0.6-0.5)*1.5+0.5 = 0.65, then +0.1 = 0.75.
	// The reverse order would give (0.7-0.5)*1.5+0.5 = 0.8.
	p := identity()
	p.Contrast = 1.5
	p.Brightness = 0.1
	got := Filter(Uniform(RGB{0.6, 0.6, 0.6}), p)
	if !near32(got[0], 0.75) {
		t.Errorf("contrast/brightness order: got %v, want 0.75", got[0])
	}
}
