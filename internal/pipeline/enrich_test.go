package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/broker-catalog/internal/model"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLinkedInSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.linkedin.com/search/results/people/?keywords=Jane%20Doe%20Sunbelt%20%26%20Co&origin=GLOBAL_SEARCH_HEADER",
		LinkedInSearchURL("Jane Doe", "Sunbelt & Co"))
	assert.Equal(t,
		"https://www.linkedin.com/search/results/people/?keywords=Jane%20Doe&origin=GLOBAL_SEARCH_HEADER",
		LinkedInSearchURL("Jane Doe", ""))
	assert.Empty(t, LinkedInSearchURL("  ", "Sunbelt"))
}

func TestEnricher_EmailSources(t *testing.T) {
	withEmail := broker("Ann Wu", "ann@wu.com", "https://1")
	fromListing := broker("Bob Ray", "", "https://2")
	fromProfile := broker("Cy Po", "", "https://3")
	fromProfile.ProfileURL = "https://site/brokers/cy"
	brokenProfile := broker("Di Ko", "", "https://4")
	brokenProfile.ProfileURL = "https://site/brokers/missing"
	nothing := broker("Ed Yu", "", "https://5")

	conn := &pageConnector{profiles: map[string]string{
		"https://site/brokers/cy": `<a href="mailto:cy@brokers.com">Email Cy</a>`,
	}}
	s := NewState(nil).
		WithBrokers([]model.BrokerRecord{withEmail, fromListing, fromProfile, brokenProfile, nothing}).
		WithPage("https://2", `<p>Reach Bob at Bob.Ray@Deals.com</p>`).
		WithPage("https://3", `<p>no address here</p>`)

	out := NewEnricher(conn).Enrich(context.Background(), s)

	got := out.Brokers()
	require.Len(t, got, 5)
	assert.Equal(t, model.EmailSourceExisting, got[0].EmailSource)
	assert.Equal(t, "bob.ray@deals.com", got[1].Email)
	assert.Equal(t, model.EmailSourceListingPage, got[1].EmailSource)
	assert.Equal(t, "cy@brokers.com", got[2].Email)
	assert.Equal(t, model.EmailSourceBrokerProfile, got[2].EmailSource)
	assert.Empty(t, got[3].Email)
	assert.Equal(t, model.EmailSourceNone, got[3].EmailSource)
	assert.Equal(t, model.EmailSourceNone, got[4].EmailSource)

	require.Len(t, out.Errors(), 1)
	var ee *model.ExtractionError
	require.True(t, errors.As(out.Errors()[0], &ee))
	assert.Equal(t, "profile", ee.Stage)
	assert.Equal(t, []string{"https://site/brokers/cy", "https://site/brokers/missing"}, conn.fetched)
}

func TestEnricher_FillOnlyIfAbsent(t *testing.T) {
	l := model.NewListing("https://1", "BizBuySell")
	l.Location = "Austin, TX"
	l.Industry = "Not Specified"

	keep := broker("Ann Wu", "ann@wu.com", "https://1")
	keep.Geography = "Houston, TX"
	keep.RecordID = "broker_existing"
	keep.LinkedInURL = "https://linkedin/custom"
	fill := broker("Bob Ray", "", "https://1")

	s := NewState([]model.ListingRecord{l}).WithBrokers([]model.BrokerRecord{keep, fill})
	got := NewEnricher(nil).Enrich(context.Background(), s).Brokers()

	assert.Equal(t, "Houston, TX", got[0].Geography)
	assert.Equal(t, "broker_existing", got[0].RecordID)
	assert.Equal(t, "https://linkedin/custom", got[0].LinkedInURL)

	assert.Equal(t, "Austin, TX", got[1].Geography)
	assert.Empty(t, got[1].IndustryFocus)
	assert.True(t, strings.HasPrefix(got[1].RecordID, "broker_"))
	assert.Contains(t, got[1].LinkedInURL, "keywords=Bob%20Ray&")
}

func TestEnricher_DoesNotMutateInput(t *testing.T) {
	s := NewState(nil).WithBrokers([]model.BrokerRecord{broker("Ann Wu", "", "https://1")})
	_ = NewEnricher(nil).Enrich(context.Background(), s)
	assert.Empty(t, s.Brokers()[0].RecordID)
}
