// Package clinic defines the canonical clinic record and the normalizer that
// maps upstream rows onto it.
package clinic

import "strings"

// Record is one clinic in canonical form.
//
// DistanceMiles and DistanceLabel are only set on results of a zip search;
// they are never part of the normalized collection itself.
type Record struct {
	ID                 string `json:"id,omitempty"`
	Name               string `json:"name"`
	City               string `json:"city"`
	State              string `json:"state"`
	ZipCode            string `json:"zipCode"`
	Phone              string `json:"phone"`
	Website            string `json:"website"`
	Specialty          string `json:"specialty"`
	ServicesOffered    string `json:"servicesOffered"`
	InsuranceAccepted  string `json:"insuranceAccepted"`
	ClinicType         string `json:"clinicType,omitempty"`
	ClassificationNote string `json:"classificationNote,omitempty"`

	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
	DistanceLabel string   `json:"distanceLabel,omitempty"`
}

// WithoutDistance returns a copy with the search-only fields cleared.
func (r Record) WithoutDistance() Record {
	r.DistanceMiles = nil
	r.DistanceLabel = ""
	return r
}

// WithDistance returns a copy carrying a computed distance and its label.
func (r Record) WithDistance(miles float64, label string) Record {
	r.DistanceMiles = &miles
	r.DistanceLabel = label
	return r
}

// Display fallbacks used when rendering a clinic card. A present but blank
// column keeps its blank value in the record and only falls back here.
const (
	FallbackName      = "Unknown Clinic"
	FallbackCity      = "Austin"
	FallbackState     = "TX"
	FallbackPhone     = "N/A"
	FallbackSpecialty = "General"
	FallbackServices  = "Contact for services"
	FallbackInsurance = "Contact clinic"
)

// DisplayName returns the name or FallbackName.
func (r Record) DisplayName() string {
	return orDefault(r.Name, FallbackName)
}

// DisplayCity returns the city or FallbackCity.
func (r Record) DisplayCity() string {
	return orDefault(r.City, FallbackCity)
}

// DisplayState returns the state or FallbackState.
func (r Record) DisplayState() string {
	return orDefault(r.State, FallbackState)
}

// DisplayPhone returns the phone or FallbackPhone.
func (r Record) DisplayPhone() string {
	return orDefault(r.Phone, FallbackPhone)
}

// DisplaySpecialty returns the specialty or FallbackSpecialty.
func (r Record) DisplaySpecialty() string {
	return orDefault(r.Specialty, FallbackSpecialty)
}

// DisplayServices returns the services or FallbackServices.
func (r Record) DisplayServices() string {
	return orDefault(r.ServicesOffered, FallbackServices)
}

// DisplayInsurance returns the accepted insurance or FallbackInsurance.
func (r Record) DisplayInsurance() string {
	return orDefault(r.InsuranceAccepted, FallbackInsurance)
}

// WebsiteURL returns an absolute link for the website, adding https:// when
// no scheme is given. An empty website yields "".
func (r Record) WebsiteURL() string {
	return WebsiteURL(r.Website)
}

// WebsiteURL normalizes a bare host or path into an absolute https URL.
func WebsiteURL(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	lower := strings.ToLower(site)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return site
	}
	if strings.HasPrefix(site, "//") {
		return "https:" + site
	}
	return "https://" + site
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
