// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperRecord is the flat, fixed-schema representation of one paper as
// stored in the papers table. Pointer fields map to nullable columns:
// nil means the source omitted the value and the store keeps NULL.
//
// Counts are always derived from the source's nested collections, never
// copied verbatim, so they are plain non-negative ints. Boolean flags
// default to false when the source omits them. Score fields pass through
// unmodified; range enforcement belongs to the quality checks.
type PaperRecord struct {
	// ID is the primary key. Never empty: the normalizer falls back to
	// DOI, the OpenAlex internal ID, and finally a content hash.
	ID          string  `json:"id" yaml:"id"`
	DOI         *string `json:"doi" yaml:"doi"`
	Title       *string `json:"title" yaml:"title"`
	DisplayName *string `json:"display_name" yaml:"display_name"`

	// Temporal data. Dates stay in the source's YYYY-MM-DD string form.
	PublicationYear *int    `json:"publication_year" yaml:"publication_year"`
	PublicationDate *string `json:"publication_date" yaml:"publication_date"`
	CreatedDate     *string `json:"created_date" yaml:"created_date"`
	UpdatedDate     *string `json:"updated_date" yaml:"updated_date"`

	// Basic metadata.
	Language     *string `json:"language" yaml:"language"`
	PaperType    *string `json:"paper_type" yaml:"paper_type"`
	TypeCrossref *string `json:"type_crossref" yaml:"type_crossref"`

	// Open access information, taken from the primary location.
	IsOpenAccess *bool   `json:"is_open_access" yaml:"is_open_access"`
	OAStatus     *string `json:"oa_status" yaml:"oa_status"`
	OAURL        *string `json:"oa_url" yaml:"oa_url"`

	// Quantitative measures.
	CitedByCount              int `json:"cited_by_count" yaml:"cited_by_count"`
	ReferencedWorksCount      int `json:"referenced_works_count" yaml:"referenced_works_count"`
	AuthorsCount              int `json:"authors_count" yaml:"authors_count"`
	CountriesDistinctCount    int `json:"countries_distinct_count" yaml:"countries_distinct_count"`
	InstitutionsDistinctCount int `json:"institutions_distinct_count" yaml:"institutions_distinct_count"`

	// Citation metrics.
	CitationNormalizedPercentile *float64 `json:"citation_normalized_percentile" yaml:"citation_normalized_percentile"`
	IsInTop1Percent              bool     `json:"is_in_top_1_percent" yaml:"is_in_top_1_percent"`
	IsInTop10Percent             bool     `json:"is_in_top_10_percent" yaml:"is_in_top_10_percent"`

	// Source/journal information.
	JournalName             *string `json:"journal_name" yaml:"journal_name"`
	JournalISSN             *string `json:"journal_issn" yaml:"journal_issn"`
	JournalIsOA             *bool   `json:"journal_is_oa" yaml:"journal_is_oa"`
	JournalIsIndexedScopus  *bool   `json:"journal_is_indexed_scopus" yaml:"journal_is_indexed_scopus"`
	JournalIsCore           *bool   `json:"journal_is_core" yaml:"journal_is_core"`
	JournalHostOrganization *string `json:"journal_host_organization" yaml:"journal_host_organization"`

	// Topic classification, flattened from the first (primary) topic.
	PrimaryTopicName    *string  `json:"primary_topic_name" yaml:"primary_topic_name"`
	PrimaryTopicScore   *float64 `json:"primary_topic_score" yaml:"primary_topic_score"`
	PrimarySubfieldName *string  `json:"primary_subfield_name" yaml:"primary_subfield_name"`
	PrimaryFieldName    *string  `json:"primary_field_name" yaml:"primary_field_name"`
	PrimaryDomainName   *string  `json:"primary_domain_name" yaml:"primary_domain_name"`

	// Additional flags.
	IsRetracted bool `json:"is_retracted" yaml:"is_retracted"`
	IsParatext  bool `json:"is_paratext" yaml:"is_paratext"`
	HasFulltext bool `json:"has_fulltext" yaml:"has_fulltext"`
}
