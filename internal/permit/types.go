// Package permit defines the core record types shared across subsystems.
package permit

import "time"

// ScrapeStatus represents the outcome of a fetch attempt for one RSN.
type ScrapeStatus string

// Scrape status values persisted in the record store.
const (
	// ScrapeInProgress marks an RSN claimed by a worker but not yet resolved.
	ScrapeInProgress ScrapeStatus = "in_progress"
	// ScrapeNotFound means the registry returned its empty-result sentinel.
	ScrapeNotFound ScrapeStatus = "not_found"
	// ScrapeCaptured means permit data was extracted successfully.
	ScrapeCaptured ScrapeStatus = "captured"
	// ScrapeNoContent means the page existed but carried no details block.
	ScrapeNoContent ScrapeStatus = "retrieved_no_content"
	// ScrapeFailed means the fetch itself errored after exhausting retries.
	ScrapeFailed ScrapeStatus = "failed"
)

// BotStatus represents the publication lifecycle layered on top of a
// captured record. It is only ever assigned once ScrapeStatus is captured.
type BotStatus string

// Bot status values persisted in the record store.
const (
	BotNothingToPost BotStatus = "nothing_to_tweet"
	BotReady         BotStatus = "ready_to_tweet"
	BotNotWorthy     BotStatus = "not_tweetworthy"
	BotPosted        BotStatus = "tweeted"
	BotAPIError      BotStatus = "api_error"
)

// Fields holds the normalized permit attributes extracted from a captured
// page. Date fields are pointers so an absent date stays nil rather than
// becoming an empty string.
type Fields struct {
	PermitID          string  `json:"permit_id,omitempty"`
	ProjectName       string  `json:"project_name,omitempty"`
	ApplicationDate   *string `json:"application_date,omitempty"`
	Issued            *string `json:"issued,omitempty"`
	ExpirationDate    *string `json:"expiration_date,omitempty"`
	Subtype           string  `json:"subtype,omitempty"`
	Worktype          string  `json:"worktype,omitempty"`
	Status            string  `json:"status,omitempty"`
	Description       string  `json:"description,omitempty"`
	RelatedFolder     string  `json:"related_folder,omitempty"`
	ReferenceFileName string  `json:"reference_file_name,omitempty"`

	PropertyNumber     string `json:"property_number,omitempty"`
	PropertyPre        string `json:"property_pre,omitempty"`
	PropertyStreet     string `json:"property_street,omitempty"`
	PropertyStreetType string `json:"property_streettype,omitempty"`
	PropertyDir        string `json:"property_dir,omitempty"`
	PropertyUnitType   string `json:"property_unit_type,omitempty"`
	PropertyUnitNumber string `json:"property_unit_number,omitempty"`
	PropertyCity       string `json:"property_city,omitempty"`
	PropertyState      string `json:"property_state,omitempty"`
	PropertyZip        string `json:"property_zip,omitempty"`
	PropertyLegalDesc  string `json:"property_legal_desc,omitempty"`

	// Extra carries labels the registry emits that have no dedicated column.
	Extra map[string]string `json:"extra,omitempty"`
}

// Record is the unit of work and the unit of storage. RSN is assigned by the
// external registry and never changes; ScrapeStatus is last-write-wins per
// RSN across re-scans.
type Record struct {
	RSN          int64        `json:"rsn"`
	ScrapeStatus ScrapeStatus `json:"scrape_status"`
	BotStatus    BotStatus    `json:"bot_status"`
	ScrapeDate   time.Time    `json:"scrape_date"`
	Fields       Fields       `json:"fields"`
}
