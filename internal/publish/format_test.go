package publish

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/permitwatch/permit-crawler/internal/permit"
)

func TestSubtypeDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "padded residential code", in: "R- 101 Single Family Houses", want: "Single Family Houses"},
		{name: "unpadded residential code", in: "R-101 Single Family Houses", want: "Single Family Houses"},
		{name: "commercial code", in: "C-1000 Commercial Remodel", want: "Commercial Remodel"},
		{name: "no code passes through", in: "Short Term Rental Type 1-A", want: "Short Term Rental Type 1-A"},
		{name: "zoning passes through", in: "Zoning/Rezoning", want: "Zoning/Rezoning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, SubtypeDescription(tt.in))
		})
	}
}

func TestFormatPost(t *testing.T) {
	t.Parallel()

	rec := permit.Record{
		RSN: 12353184,
		Fields: permit.Fields{
			Subtype:     "R- 101 Single Family Houses",
			ProjectName: "New House",
			PropertyZip: "78701",
		},
	}
	got := FormatPost(rec, "https://registry.example/rsn=")
	require.Equal(t, "Single Family Houses at New House (78701) https://registry.example/rsn=12353184", got)
}

func TestFormatPostOmitsMissingZip(t *testing.T) {
	t.Parallel()

	rec := permit.Record{
		RSN: 42,
		Fields: permit.Fields{
			Subtype:     "Hotel",
			ProjectName: "Downtown Tower",
		},
	}
	got := FormatPost(rec, "https://registry.example/rsn=")
	require.Equal(t, "Hotel at Downtown Tower https://registry.example/rsn=42", got)
}
