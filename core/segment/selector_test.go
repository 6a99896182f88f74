package segment

import (
	"testing"

	"github.com/textloom/textloom/core/tag"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		input   string
		in      []int
		out     []int
		wantErr bool
	}{
		{input: "", in: []int{0, 5, 100}},
		{input: "3", in: []int{3}, out: []int{2, 4}},
		{input: "2-9", in: []int{2, 5, 9}, out: []int{1, 10}},
		{input: "1, 4, 7-9", in: []int{1, 4, 7, 8, 9}, out: []int{2, 6, 10}},
		{input: "9-2", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1,,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sel, err := ParseSelector(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSelector(%q): %v", tt.input, err)
			}
			for _, i := range tt.in {
				if !sel.Contains(i) {
					t.Errorf("Contains(%d) = false, want true", i)
				}
			}
			for _, i := range tt.out {
				if sel.Contains(i) {
					t.Errorf("Contains(%d) = true, want false", i)
				}
			}
		})
	}
}

func TestSelectorSelect(t *testing.T) {
	st := NewStore(tag.Default())
	for i := 0; i < 5; i++ {
		st.Append(New(i, ParagraphAt(i), "", "text", tag.CurrentVersion))
	}

	sel, err := ParseSelector("1-2,4")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	got := sel.Select(st)
	if len(got) != 3 || got[0].Index != 1 || got[1].Index != 2 || got[2].Index != 4 {
		t.Errorf("Select() indices = %v", got)
	}
}
