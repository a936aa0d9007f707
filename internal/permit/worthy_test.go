package permit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTweetworthy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		permitID string
		subtype  string
		want     bool
	}{
		{name: "missing subtype never qualifies", permitID: "2019-BP-123", subtype: "", want: false},
		{name: "excluded commercial remodel", permitID: "2019-BP-123", subtype: "C-1000 Commercial Remodel", want: false},
		{name: "excluded commercial finish out", permitID: "2019-BP-124", subtype: "C-1001 Commercial Finish Out", want: false},
		{name: "excluded padded residential code", permitID: "2019-BP-125", subtype: "R- 435 Renovations/Remodel", want: false},
		{name: "new single family house", permitID: "2019-BP-126", subtype: "R-101 Single Family Houses", want: true},
		{name: "short term rental marker", permitID: "2019-LM-001", subtype: "Short Term Rental Type 1-A", want: true},
		{name: "included zoning case", permitID: "2019-LM-002", subtype: "Zoning/Rezoning", want: true},
		{name: "included hotel", permitID: "2019-LM-003", subtype: "Hotel", want: true},
		{name: "plumbing is not worthy", permitID: "2019-PP-004", subtype: "Plumbing", want: false},
		{name: "unknown non-bp subtype", permitID: "2019-LM-005", subtype: "Driveway Approach", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Tweetworthy(Fields{PermitID: tt.permitID, Subtype: tt.subtype})
			require.Equal(t, tt.want, got)
		})
	}
}
