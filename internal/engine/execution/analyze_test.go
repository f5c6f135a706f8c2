package execution

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name    string
		markers []Marker
		want    Stats
	}{
		{
			name:    "trailing empties and one gap",
			markers: []Marker{Number(1), Number(2), Number(4), EmptyMarker, EmptyMarker},
			want: Stats{
				Unambiguous:        true,
				ActualEmptyCells:   2,
				EmptyCellsEnd:      2,
				NumericCountsTotal: 3,
				NumericSetTotal:    3,
				SkipsTotal:         1,
				SkipsSize:          1,
				SkipsMiddleTotal:   1,
				SkipsMiddleSize:    1,
			},
		},
		{
			name:    "out of order",
			markers: []Marker{Number(3), Number(1), Number(2)},
			want: Stats{
				Unambiguous:        true,
				NumericCountsTotal: 3,
				NumericSetTotal:    3,
				Unordered:          true,
			},
		},
		{
			name:    "late start",
			markers: []Marker{Number(5), Number(6)},
			want: Stats{
				Unambiguous:        true,
				NumericCountsTotal: 2,
				NumericSetTotal:    2,
				SkipsTotal:         1,
				SkipsSize:          4,
			},
		},
		{
			name:    "duplicates and mixed markers",
			markers: []Marker{NullMarker, Number(2), EmptyMarker, Number(2), ProcessingMarker, EmptyMarker},
			want: Stats{
				Unambiguous:        false,
				ActualEmptyCells:   2,
				NonExecutedCells:   1,
				EmptyCellsMiddle:   1,
				EmptyCellsEnd:      1,
				NumericCountsTotal: 2,
				NumericSetTotal:    1,
				ProcessingCells:    1,
				SkipsTotal:         1,
				SkipsSize:          1,
			},
		},
		{
			name:    "empty sequence",
			markers: nil,
			want:    Stats{Unambiguous: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.markers)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !got.Unambiguous, got.Ambiguous())
			assert.Equal(t, got.ActualEmptyCells, got.EmptyCellsMiddle+got.EmptyCellsEnd)
		})
	}
}

func TestMarker_JSON(t *testing.T) {
	markers := []Marker{Number(3), EmptyMarker, ProcessingMarker, NullMarker}
	data, err := json.Marshal(markers)
	require.NoError(t, err)
	assert.Equal(t, `[3,"empty","*",null]`, string(data))

	var back []Marker
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, markers, back)

	var m Marker
	assert.Error(t, json.Unmarshal([]byte(`"done"`), &m))
}

func TestStats_Record(t *testing.T) {
	rec := Analyze([]Marker{Number(1)}).Record()
	assert.Equal(t, "unambiguous", rec[0].Key)
	assert.Equal(t, "execution_skips_middle_size", rec[len(rec)-1].Key)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var fromTags map[string]any
	require.NoError(t, json.Unmarshal(data, &fromTags))
	assert.Len(t, fromTags, 13)
}
