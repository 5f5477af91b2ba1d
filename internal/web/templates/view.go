// Package templates renders the directory's HTML pages. The *.templ files
// are the sources; the *_templ.go files are generated from them.
package templates

//go:generate templ generate

import (
	"strconv"

	"github.com/JonMunkholm/ohan/internal/clinic"
)

// SiteName is shown in the header and page titles.
const SiteName = "OHAN Dental Directory"

// RadiusOptions are the choices offered in the radius menu, in miles.
var RadiusOptions = []float64{5, 10, 25, 50}

// SearchForm holds the visitor's input, echoed back into the form.
type SearchForm struct {
	Zip         string
	Specialty   string
	Radius      float64
	Specialties []string
}

// ErrorInfo is a user-facing error shown inline.
type ErrorInfo struct {
	Message string
	Action  string
	Code    string
}

// ClinicsPageParams holds everything the finder page renders.
type ClinicsPageParams struct {
	Form    SearchForm
	Clinics []clinic.Record
	Total   int
	Notice  string
	Error   *ErrorInfo
}

func pageTitle(title string) string {
	if title == "" {
		return SiteName
	}
	return title + " | " + SiteName
}

func resultCount(shown, total int) string {
	return "Showing " + strconv.Itoa(shown) + " of " + strconv.Itoa(total) + " clinics"
}

func formatMiles(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func cardID(index int) string {
	return "clinic-" + strconv.Itoa(index)
}

func addressLine(c clinic.Record) string {
	return c.DisplayCity() + ", " + c.DisplayState() + " " + c.ZipCode
}
