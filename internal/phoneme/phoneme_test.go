package phoneme

import "testing"

func TestTimeline_EmptyInputs(t *testing.T) {
	if frames := Timeline("", 2.0); frames != nil {
		t.Fatalf("expected nil for empty text, got %d frames", len(frames))
	}
	if frames := Timeline("hello", 0); frames != nil {
		t.Fatalf("expected nil for zero duration, got %d frames", len(frames))
	}
	if frames := Timeline("123 !?", 2.0); frames != nil {
		t.Fatalf("expected nil for non-letter text, got %d frames", len(frames))
	}
}

func TestTimeline_SpacingAndBounds(t *testing.T) {
	frames := Timeline("What is a HashMap?", 3.0)
	if len(frames) == 0 {
		t.Fatalf("expected frames")
	}
	if frames[0].Time != 0 {
		t.Fatalf("first frame should start at 0, got %v", frames[0].Time)
	}
	for i, f := range frames {
		if f.Time > 3.0 {
			t.Fatalf("frame %d at %v exceeds duration", i, f.Time)
		}
		if i > 0 && f.Time < frames[i-1].Time {
			t.Fatalf("timeline not monotonic at frame %d", i)
		}
		if f.Phoneme == "" {
			t.Fatalf("frame %d missing phoneme", i)
		}
	}
}

func TestSplit_Digraphs(t *testing.T) {
	cases := []struct {
		word  string
		first string
	}{
		{"think", "θ"},
		{"shell", "ʃ"},
		{"phone", "f"},
		{"week", "w"},
	}
	for _, tc := range cases {
		got := split(tc.word)
		if len(got) == 0 || got[0] != tc.first {
			t.Errorf("split(%q): expected first phoneme %q, got %v", tc.word, tc.first, got)
		}
	}
	// "ng" maps to a single phoneme, not n+g.
	got := split("ring")
	want := []string{"r", "ɪ", "ŋ"}
	if len(got) != len(want) {
		t.Fatalf("split(ring) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("split(ring) = %v, want %v", got, want)
		}
	}
}

func TestTimeline_BlendValues(t *testing.T) {
	frames := Timeline("oo", 1.0)
	if len(frames) != 1 {
		t.Fatalf("expected one frame for a single digraph, got %d", len(frames))
	}
	f := frames[0]
	if f.Phoneme != "uː" {
		t.Fatalf("expected uː, got %q", f.Phoneme)
	}
	if f.MouthPucker != 0.8 || f.JawOpen != 0.2 {
		t.Fatalf("unexpected blend values: %+v", f)
	}
}
