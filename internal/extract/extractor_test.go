package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const permitPage = `<html><body>
<div class="group">
  <span>FOLDER DETAILS</span>
  <span>Permit/Case:</span><span> 2019-123456 BP </span>
  <span>Project Name:</span><span>New Duplex</span>
  <span>Sub Type:</span><span>R-101 Single Family Houses</span>
  <span>Application Date:</span><span>Oct 21, 2019</span>
  <span>Expiration Date:</span><span></span>
  <span>Permit Clerk:</span><span>J. Smith</span>
</div>
<div>
  <h2><label for="d_1376492351078" title=""><span>PROPERTY DETAILS</span></label></h2>
  <table>
    <tr><td>SEG-1</td><td>CONGRESS AVE</td><td>0-100</td></tr>
    <tr>
      <td>401</td><td></td><td>CONGRESS</td><td>AVE</td><td></td>
      <td>UNIT</td><td>2</td><td>AUSTIN</td><td>TX</td><td>78701</td>
      <td>LOT 1 BLK A</td>
    </tr>
    <tr>
      <td>403</td><td></td><td>CONGRESS</td><td>AVE</td><td></td>
      <td>UNIT</td><td>3</td><td>AUSTIN</td><td>TX</td><td>78701</td>
      <td>LOT 2 BLK A</td>
    </tr>
  </table>
</div>
</body></html>`

func TestExtractPermitPage(t *testing.T) {
	t.Parallel()

	fields, err := Extract([]byte(permitPage))
	require.NoError(t, err)

	require.Equal(t, "2019-123456 BP", fields["Permit/Case"])
	require.Equal(t, "New Duplex", fields["Project Name"])
	require.Equal(t, "R-101 Single Family Houses", fields["Sub Type"])
	require.Equal(t, "Oct 21, 2019", fields["Application Date"])
	require.Equal(t, "", fields["Expiration Date"])

	// Only the first 11-cell address row is kept; the street-segment row and
	// the second unit are skipped.
	require.Equal(t, "401", fields["property_number"])
	require.Equal(t, "2", fields["property_unit_number"])
	require.Equal(t, "78701", fields["property_zip"])
	require.Equal(t, "LOT 1 BLK A", fields["property_legal_desc"])
}

func TestExtractIsIdempotent(t *testing.T) {
	t.Parallel()

	first, err := Extract([]byte(permitPage))
	require.NoError(t, err)
	second, err := Extract([]byte(permitPage))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestExtractNoDetailsBlock(t *testing.T) {
	t.Parallel()

	fields, err := Extract([]byte(`<html><body><p>maintenance page</p></body></html>`))
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestExtractNoAddressRow(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<div class="group">
  <span>FOLDER DETAILS</span>
  <span>Permit/Case:</span><span>2020-1 BP</span>
</div>
<div>
  <h2><label for="d_1376492351078"><span>PROPERTY DETAILS</span></label></h2>
  <table><tr><td>SEG-1</td><td>LAMAR BLVD</td><td>0-100</td></tr></table>
</div>
</body></html>`

	fields, err := Extract([]byte(page))
	require.NoError(t, err)
	require.Equal(t, "2020-1 BP", fields["Permit/Case"])
	require.NotContains(t, fields, "property_number")
	require.NotContains(t, fields, "property_zip")
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	f := Normalize(FieldMap{
		"Permit/Case":      "2019-123456 BP",
		"Project Name":     "New Duplex",
		"Sub Type":         "R-101 Single Family Houses",
		"Application Date": "Oct 21, 2019",
		"Expiration Date":  "",
		"Permit Clerk":     "J. Smith",
		"property_zip":     "78701",
	})

	require.Equal(t, "2019-123456 BP", f.PermitID)
	require.Equal(t, "New Duplex", f.ProjectName)
	require.Equal(t, "R-101 Single Family Houses", f.Subtype)
	require.NotNil(t, f.ApplicationDate)
	require.Equal(t, "2019-10-21", *f.ApplicationDate)
	require.Nil(t, f.ExpirationDate)
	require.Equal(t, "78701", f.PropertyZip)
	require.Equal(t, map[string]string{"Permit Clerk": "J. Smith"}, f.Extra)
}

func TestNormalizeDateVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want *string
	}{
		{name: "standard", in: "Oct 21, 2019", want: strPtr("2019-10-21")},
		{name: "padded day", in: "Oct 05, 2019", want: strPtr("2019-10-05")},
		{name: "empty is nil", in: "", want: nil},
		{name: "unrecognized kept verbatim", in: "pending", want: strPtr("pending")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeDate(tt.in)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.Equal(t, *tt.want, *got)
		})
	}
}

func strPtr(s string) *string { return &s }
