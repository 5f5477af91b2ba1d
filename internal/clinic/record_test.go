package clinic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsiteURL(t *testing.T) {
	tests := map[string]string{
		"":                        "",
		"   ":                     "",
		"smiles.example.com":      "https://smiles.example.com",
		"www.smiles.example/kids": "https://www.smiles.example/kids",
		"http://plain.example":    "http://plain.example",
		"HTTPS://UPPER.example":   "HTTPS://UPPER.example",
		"//cdn.example/x":         "https://cdn.example/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, WebsiteURL(in), "WebsiteURL(%q)", in)
	}
}

func TestDisplayFallbacks(t *testing.T) {
	var r Record
	assert.Equal(t, FallbackSpecialty, r.DisplaySpecialty())
	assert.Equal(t, FallbackServices, r.DisplayServices())
	assert.Equal(t, FallbackInsurance, r.DisplayInsurance())

	assert.Equal(t, FallbackName, r.DisplayName())
	assert.Equal(t, FallbackCity, r.DisplayCity())
	assert.Equal(t, FallbackState, r.DisplayState())
	assert.Equal(t, FallbackPhone, r.DisplayPhone())

	r.Specialty = "Orthodontics"
	r.Name = "Smile Co"
	assert.Equal(t, "Orthodontics", r.DisplaySpecialty())
	assert.Equal(t, "Smile Co", r.DisplayName())
}

func TestBlankNameStaysBlankUntilDisplay(t *testing.T) {
	rec := DefaultNormalizer().Normalize(map[string]any{"Clinic Name": "", "City": "  "})

	assert.Equal(t, "", rec.Name, "present key wins over the default")
	assert.Equal(t, FallbackName, rec.DisplayName())
	assert.Equal(t, FallbackCity, rec.DisplayCity())
}

func TestDistanceFieldsOnlySerializedWhenSet(t *testing.T) {
	r := Record{Name: "A"}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "distanceMiles")
	assert.NotContains(t, string(b), "distanceLabel")

	withDist := r.WithDistance(2.4, "2.4 mi")
	b, err = json.Marshal(withDist)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"distanceMiles":2.4`)
	assert.Contains(t, string(b), `"distanceLabel":"2.4 mi"`)

	cleared := withDist.WithoutDistance()
	assert.Nil(t, cleared.DistanceMiles)
	assert.Empty(t, cleared.DistanceLabel)
	assert.Nil(t, r.DistanceMiles, "WithDistance does not touch the receiver")
}
