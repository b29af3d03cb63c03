// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

// Work is one bibliographic record as returned by the OpenAlex Works API.
// Every nested object and most scalar fields are optional: the API omits
// or nulls anything it does not know, so sub-objects are pointers and the
// accessor methods below substitute empty values for absent paths.
type Work struct {
	ID              string           `json:"id"`
	DOI             *string          `json:"doi"`
	Title           *string          `json:"title"`
	DisplayName     *string          `json:"display_name"`
	PublicationYear *int             `json:"publication_year"`
	PublicationDate *string          `json:"publication_date"`
	CreatedDate     *string          `json:"created_date"`
	UpdatedDate     *string          `json:"updated_date"`
	Language        *string          `json:"language"`
	Type            *string          `json:"type"`
	TypeCrossref    *string          `json:"type_crossref"`
	CitedByCount    *int             `json:"cited_by_count"`
	IsRetracted     *bool            `json:"is_retracted"`
	IsParatext      *bool            `json:"is_paratext"`
	HasFulltext     *bool            `json:"has_fulltext"`
	IDs             *WorkIDs         `json:"ids"`
	PrimaryLocation *Location        `json:"primary_location"`
	Topics          []Topic          `json:"topics"`
	Authorships     []Authorship     `json:"authorships"`
	ReferencedWorks []string         `json:"referenced_works"`
	CitationMetrics *CitationMetrics `json:"citation_metrics"`
}

// WorkIDs holds the alternative identifiers OpenAlex knows for a work.
type WorkIDs struct {
	OpenAlex string `json:"openalex"`
	DOI      string `json:"doi"`
	MAG      string `json:"mag"`
	PMID     string `json:"pmid"`
}

// Location describes where a work is hosted.
type Location struct {
	IsOA     *bool   `json:"is_oa"`
	OAStatus *string `json:"oa_status"`
	PDFURL   *string `json:"pdf_url"`
	Source   *Source `json:"source"`
}

// Source describes the venue (journal, repository) of a location.
type Source struct {
	DisplayName          *string `json:"display_name"`
	ISSNL                *string `json:"issn_l"`
	IsOA                 *bool   `json:"is_oa"`
	IsIndexedInScopus    *bool   `json:"is_indexed_in_scopus"`
	IsCore               *bool   `json:"is_core"`
	HostOrganizationName *string `json:"host_organization_name"`
}

// Topic is one entry of a work's pre-ranked topic list.
type Topic struct {
	DisplayName *string     `json:"display_name"`
	Score       *float64    `json:"score"`
	Subfield    *TopicLevel `json:"subfield"`
	Field       *TopicLevel `json:"field"`
	Domain      *TopicLevel `json:"domain"`
}

// TopicLevel is one level of the subfield/field/domain hierarchy.
type TopicLevel struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
}

// Authorship links a work to one author and their affiliations.
type Authorship struct {
	Author       *Author        `json:"author"`
	CountryCode  *string        `json:"country_code"`
	Institutions []*Institution `json:"institutions"`
}

// Author identifies one author.
type Author struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
}

// Institution identifies one affiliated institution.
type Institution struct {
	ID          *string `json:"id"`
	DisplayName *string `json:"display_name"`
	CountryCode *string `json:"country_code"`
}

// CitationMetrics holds derived citation statistics for a work.
type CitationMetrics struct {
	NormalizedPercentile *float64 `json:"normalized_percentile"`
	IsInTop1Percent      *bool    `json:"is_in_top_1_percent"`
	IsInTop10Percent     *bool    `json:"is_in_top_10_percent"`
}

// The accessors below implement safe navigation over the optional nesting:
// each one substitutes an empty struct for a missing intermediate object,
// so callers extract leaf fields without chained nil checks.

// Location returns the primary location, or an empty one when absent.
func (w *Work) Location() Location {
	if w.PrimaryLocation == nil {
		return Location{}
	}
	return *w.PrimaryLocation
}

// Venue returns the location's source, or an empty one when absent.
func (l Location) Venue() Source {
	if l.Source == nil {
		return Source{}
	}
	return *l.Source
}

// PrimaryTopic returns the first topic of the pre-ranked list, or an empty
// topic when the list is empty. Source order is the only ranking used.
func (w *Work) PrimaryTopic() Topic {
	if len(w.Topics) == 0 {
		return Topic{}
	}
	return w.Topics[0]
}

// SubfieldLevel returns the topic's subfield, or an empty level when absent.
func (t Topic) SubfieldLevel() TopicLevel {
	if t.Subfield == nil {
		return TopicLevel{}
	}
	return *t.Subfield
}

// FieldLevel returns the topic's field, or an empty level when absent.
func (t Topic) FieldLevel() TopicLevel {
	if t.Field == nil {
		return TopicLevel{}
	}
	return *t.Field
}

// DomainLevel returns the topic's domain, or an empty level when absent.
func (t Topic) DomainLevel() TopicLevel {
	if t.Domain == nil {
		return TopicLevel{}
	}
	return *t.Domain
}

// Metrics returns the citation metrics, or empty metrics when absent.
func (w *Work) Metrics() CitationMetrics {
	if w.CitationMetrics == nil {
		return CitationMetrics{}
	}
	return *w.CitationMetrics
}
