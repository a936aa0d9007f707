package extract

import (
	"time"

	"github.com/permitwatch/permit-crawler/internal/permit"
)

// labelMap maps the registry's humanized labels to canonical field names.
// Labels not listed here pass through unchanged into Record.Fields.Extra.
var labelMap = map[string]string{
	"Permit/Case":         "permit_id",
	"Project Name":        "project_name",
	"Application Date":    "application_date",
	"Description":         "description",
	"Status":              "status",
	"Reference File Name": "reference_file_name",
	"Sub Type":            "subtype",
	"Work Type":           "worktype",
	"Related Folder":      "related_folder",
	"Expiration Date":     "expiration_date",
	"Issued":              "issued",
}

// registryDateLayout is the date format the registry renders, e.g.
// "Oct 21, 2019".
const registryDateLayout = "Jan 2, 2006"

// isoDateLayout is the calendar-date form stored downstream.
const isoDateLayout = "2006-01-02"

// Normalize converts a raw field map into typed permit fields: labels are
// canonicalized, date strings are reformatted to ISO form, and empty dates
// become nil rather than "".
func Normalize(raw FieldMap) permit.Fields {
	var f permit.Fields
	for label, value := range raw {
		key, known := labelMap[label]
		if !known {
			key = label
		}
		switch key {
		case "permit_id":
			f.PermitID = value
		case "project_name":
			f.ProjectName = value
		case "application_date":
			f.ApplicationDate = normalizeDate(value)
		case "issued":
			f.Issued = normalizeDate(value)
		case "expiration_date":
			f.ExpirationDate = normalizeDate(value)
		case "subtype":
			f.Subtype = value
		case "worktype":
			f.Worktype = value
		case "status":
			f.Status = value
		case "description":
			f.Description = value
		case "related_folder":
			f.RelatedFolder = value
		case "reference_file_name":
			f.ReferenceFileName = value
		case "property_number":
			f.PropertyNumber = value
		case "property_pre":
			f.PropertyPre = value
		case "property_street":
			f.PropertyStreet = value
		case "property_streettype":
			f.PropertyStreetType = value
		case "property_dir":
			f.PropertyDir = value
		case "property_unit_type":
			f.PropertyUnitType = value
		case "property_unit_number":
			f.PropertyUnitNumber = value
		case "property_city":
			f.PropertyCity = value
		case "property_state":
			f.PropertyState = value
		case "property_zip":
			f.PropertyZip = value
		case "property_legal_desc":
			f.PropertyLegalDesc = value
		default:
			if f.Extra == nil {
				f.Extra = map[string]string{}
			}
			f.Extra[key] = value
		}
	}
	return f
}

// normalizeDate reformats a registry date to ISO form. Empty input maps to
// nil; a value in an unrecognized format is kept verbatim so nothing is
// silently dropped.
func normalizeDate(value string) *string {
	if value == "" {
		return nil
	}
	t, err := time.Parse(registryDateLayout, value)
	if err != nil {
		return &value
	}
	iso := t.Format(isoDateLayout)
	return &iso
}
