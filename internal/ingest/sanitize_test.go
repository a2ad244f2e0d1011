package ingest

import "testing"

func TestCleanBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "cats are great.",
			want: "cats are great.",
		},
		{
			name: "markdown emphasis stripped",
			in:   "cats are *great* and _fluffy_",
			want: "cats are great and fluffy",
		},
		{
			name: "html entities unescaped then angle noise dropped",
			in:   "cats &amp; dogs",
			want: "cats & dogs",
		},
		{
			name: "newlines become sentence spacing",
			in:   "cats are great.\n\nDogs too.",
			want: "cats are great. Dogs too.",
		},
		{
			name: "ellipsis collapsed",
			in:   "well... maybe",
			want: "well. maybe",
		},
		{
			name: "wide spaces after punctuation collapsed",
			in:   "done.   next thought",
			want: "done. next thought",
		},
		{
			name: "html tags removed",
			in:   "<p>cats are great</p>",
			want: "cats are great",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanBody(tt.in); got != tt.want {
				t.Errorf("CleanBody(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripLinks(t *testing.T) {
	in := "see [the docs](https://example.com/docs) for details"
	want := "see (the docs) for details"
	if got := StripLinks(in); got != want {
		t.Errorf("StripLinks = %q, want %q", got, want)
	}
}
