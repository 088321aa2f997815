package notation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		token   string
		want    Event
		wantErr bool
	}{
		{name: "plain note", token: "C4:8", want: Event{Pitch: "C4", Duration: "8"}},
		{name: "sharp", token: "F#3:q", want: Event{Pitch: "F#3", Duration: "q"}},
		{name: "flat", token: "Bb2:16", want: Event{Pitch: "Bb2", Duration: "16"}},
		{name: "dotted duration", token: "G4:8.", want: Event{Pitch: "G4", Duration: "8."}},
		{name: "rest", token: "R:4", want: Event{Pitch: "R", Duration: "4"}},
		{name: "negative octave", token: "C-1:1", want: Event{Pitch: "C-1", Duration: "1"}},
		{name: "missing duration", token: "C4", wantErr: true},
		{name: "bad pitch letter", token: "H4:8", wantErr: true},
		{name: "empty", token: "", wantErr: true},
		{name: "trailing garbage", token: "C4:8:x", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.token)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.token, got.String())
		})
	}
}

func TestReadCorpus(t *testing.T) {
	in := "C4:8 E4:8 G4:4\n\nR:4 C4:8\n"
	corpus, err := ReadCorpus(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, corpus, 2, "blank lines are skipped")
	assert.Equal(t, []string{"C4:8", "E4:8", "G4:4"}, corpus[0])
	assert.Equal(t, []string{"R:4", "C4:8"}, corpus[1])
}

func TestReadCorpusMalformedToken(t *testing.T) {
	in := "C4:8 E4:8\nC4:8 nope\n"
	_, err := ReadCorpus(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "nope")
}

func TestWriteSequences(t *testing.T) {
	var sb strings.Builder
	err := WriteSequences(&sb, [][]string{
		{"C4:8", "E4:8"},
		{"R:4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "C4:8 E4:8\nR:4\n", sb.String())
}
