// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps raw OpenAlex works onto the flat papers schema.
// The transformation is pure and total: any well-formed input, including a
// fully empty work, yields a record with a non-empty ID and non-negative
// derived counts.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/vlad-ds/market-data-pipeline/internal/openalex"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

// Record flattens one raw work into a PaperRecord.
//
// Optional scalars pass through as pointers so absent source values stay
// NULL in the store. Score fields are copied unclamped; the quality checks
// own range enforcement. Counts are recomputed from the nested collections
// and never taken from the source's own count fields, except
// cited_by_count which the source does not nest.
func Record(w *openalex.Work) types.PaperRecord {
	loc := w.Location()
	venue := loc.Venue()
	topic := w.PrimaryTopic()
	metrics := w.Metrics()

	return types.PaperRecord{
		ID:          ResolveID(w),
		DOI:         w.DOI,
		Title:       firstNonNil(w.Title, w.DisplayName),
		DisplayName: w.DisplayName,

		PublicationYear: w.PublicationYear,
		PublicationDate: w.PublicationDate,
		CreatedDate:     w.CreatedDate,
		UpdatedDate:     w.UpdatedDate,

		Language:     w.Language,
		PaperType:    w.Type,
		TypeCrossref: w.TypeCrossref,

		IsOpenAccess: loc.IsOA,
		OAStatus:     loc.OAStatus,
		OAURL:        loc.PDFURL,

		CitedByCount:              intOrZero(w.CitedByCount),
		ReferencedWorksCount:      len(w.ReferencedWorks),
		AuthorsCount:              len(w.Authorships),
		CountriesDistinctCount:    distinctCountries(w.Authorships),
		InstitutionsDistinctCount: distinctInstitutions(w.Authorships),

		CitationNormalizedPercentile: metrics.NormalizedPercentile,
		IsInTop1Percent:              boolOrFalse(metrics.IsInTop1Percent),
		IsInTop10Percent:             boolOrFalse(metrics.IsInTop10Percent),

		JournalName:             venue.DisplayName,
		JournalISSN:             venue.ISSNL,
		JournalIsOA:             venue.IsOA,
		JournalIsIndexedScopus:  venue.IsIndexedInScopus,
		JournalIsCore:           venue.IsCore,
		JournalHostOrganization: venue.HostOrganizationName,

		PrimaryTopicName:    topic.DisplayName,
		PrimaryTopicScore:   topic.Score,
		PrimarySubfieldName: topic.SubfieldLevel().DisplayName,
		PrimaryFieldName:    topic.FieldLevel().DisplayName,
		PrimaryDomainName:   topic.DomainLevel().DisplayName,

		IsRetracted: boolOrFalse(w.IsRetracted),
		IsParatext:  boolOrFalse(w.IsParatext),
		HasFulltext: boolOrFalse(w.HasFulltext),
	}
}

// ResolveID picks the record identifier in preference order: the OpenAlex
// id, the DOI, the ids.openalex alias, and finally a deterministic hash of
// the serialized work. The result is never empty.
func ResolveID(w *openalex.Work) string {
	if w.ID != "" {
		return w.ID
	}
	if w.DOI != nil && *w.DOI != "" {
		return *w.DOI
	}
	if w.IDs != nil && w.IDs.OpenAlex != "" {
		return w.IDs.OpenAlex
	}
	return "fallback_" + contentHash(w)
}

// contentHash derives a stable identifier from the work's serialized form.
// Struct field order is fixed, so equal works hash equally.
func contentHash(w *openalex.Work) string {
	data, err := json.Marshal(w)
	if err != nil {
		// Work contains only marshalable field types, so this branch is
		// unreachable in practice.
		return fmt.Sprintf("unhashable_%p", w)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// distinctCountries counts unique non-empty country codes across the
// authorships. Authorships without a country contribute nothing.
func distinctCountries(authorships []openalex.Authorship) int {
	seen := make(map[string]struct{})
	for _, a := range authorships {
		if a.CountryCode != nil && *a.CountryCode != "" {
			seen[*a.CountryCode] = struct{}{}
		}
	}
	return len(seen)
}

// distinctInstitutions counts unique non-empty institution ids across all
// authorships' affiliation lists. Nil institutions and institutions without
// ids contribute nothing.
func distinctInstitutions(authorships []openalex.Authorship) int {
	seen := make(map[string]struct{})
	for _, a := range authorships {
		for _, inst := range a.Institutions {
			if inst == nil || inst.ID == nil || *inst.ID == "" {
				continue
			}
			seen[*inst.ID] = struct{}{}
		}
	}
	return len(seen)
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func boolOrFalse(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}
