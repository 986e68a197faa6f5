package pipeline

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/normalize"
)

// IndustryRule maps keyword substrings to an industry tag.
type IndustryRule struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// SizeBracket covers amounts in [Min, Max). Max 0 means unbounded.
type SizeBracket struct {
	Tag string `yaml:"tag"`
	Min int64  `yaml:"min"`
	Max int64  `yaml:"max"`
}

func (b SizeBracket) contains(amount int64) bool {
	return amount >= b.Min && (b.Max == 0 || amount < b.Max)
}

// Taxonomy holds the ordered tagging rules. The first matching rule wins.
type Taxonomy struct {
	Industries []IndustryRule `yaml:"industries"`
	Sizes      []SizeBracket  `yaml:"sizes"`
}

// DefaultTaxonomy returns the built-in industry buckets and size brackets.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Industries: []IndustryRule{
			{Tag: "technology", Keywords: []string{"tech", "software", "saas", "it", "digital"}},
			{Tag: "food_beverage", Keywords: []string{"restaurant", "cafe", "bar", "food", "beverage", "bakery"}},
			{Tag: "healthcare", Keywords: []string{"medical", "dental", "healthcare", "clinic", "spa"}},
			{Tag: "retail", Keywords: []string{"store", "shop", "retail", "boutique"}},
			{Tag: "real_estate", Keywords: []string{"property", "real estate", "commercial"}},
			{Tag: "automotive", Keywords: []string{"auto", "car", "automotive", "repair"}},
			{Tag: "services", Keywords: []string{"service", "consulting", "cleaning"}},
			{Tag: "manufacturing", Keywords: []string{"manufacturing", "production", "factory"}},
		},
		Sizes: []SizeBracket{
			{Tag: "micro", Min: 0, Max: 250_000},
			{Tag: "small", Min: 250_000, Max: 1_000_000},
			{Tag: "medium", Min: 1_000_000, Max: 5_000_000},
			{Tag: "large", Min: 5_000_000},
		},
	}
}

// LoadTaxonomy reads a YAML taxonomy. Sections missing from the file keep
// their defaults.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, eris.Wrapf(err, "pipeline: read taxonomy %s", path)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, eris.Wrapf(err, "pipeline: parse taxonomy %s", path)
	}
	def := DefaultTaxonomy()
	if len(t.Industries) == 0 {
		t.Industries = def.Industries
	}
	if len(t.Sizes) == 0 {
		t.Sizes = def.Sizes
	}
	for _, r := range t.Industries {
		if strings.TrimSpace(r.Tag) == "" {
			return Taxonomy{}, eris.Errorf("pipeline: taxonomy %s: industry rule without tag", path)
		}
	}
	for _, b := range t.Sizes {
		if strings.TrimSpace(b.Tag) == "" {
			return Taxonomy{}, eris.Errorf("pipeline: taxonomy %s: size bracket without tag", path)
		}
	}
	return t, nil
}

var stateTokenRe = regexp.MustCompile(`\b([A-Z]{2})\b`)

// Tagger assigns industry, size, geography and deal status tags.
type Tagger struct {
	taxonomy Taxonomy
}

// NewTagger creates a Tagger over the given taxonomy.
func NewTagger(t Taxonomy) *Tagger {
	return &Tagger{taxonomy: t}
}

// Industry returns the first industry whose keyword occurs in the business
// name or industry text.
func (t *Tagger) Industry(businessName, industry string) string {
	text := strings.ToLower(businessName + " " + industry)
	for _, r := range t.taxonomy.Industries {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return r.Tag
			}
		}
	}
	return model.IndustryOther
}

// Size brackets the asking price, or the revenue when no price parses.
func (t *Tagger) Size(askingPrice, revenue string) string {
	amount := normalize.ParseMoney(askingPrice)
	if amount <= 0 {
		amount = normalize.ParseMoney(revenue)
	}
	if amount <= 0 {
		return model.SizeUnknown
	}
	for _, b := range t.taxonomy.Sizes {
		if b.contains(amount) {
			return b.Tag
		}
	}
	return model.SizeUnknown
}

// Geography returns the first two-letter upper-case token, else the text
// before the first comma, else the first 50 characters.
func (t *Tagger) Geography(location string) string {
	location = strings.TrimSpace(location)
	if model.IsUnspecified(location) {
		return model.GeographyUnknown
	}
	if m := stateTokenRe.FindStringSubmatch(location); m != nil {
		return m[1]
	}
	if head, _, _ := strings.Cut(location, ","); strings.TrimSpace(head) != "" {
		return strings.TrimSpace(head)
	}
	r := []rune(location)
	if len(r) > 50 {
		r = r[:50]
	}
	return string(r)
}

// DealStatus returns the initial pipeline status for a record type.
func DealStatus(rt model.RecordType) model.DealStatus {
	switch rt {
	case model.RecordTypeBroker, model.RecordTypeEmail:
		return model.DealStatusContacted
	default:
		return model.DealStatusNewLead
	}
}

// Tag returns a copy of records with every tag set.
func (t *Tagger) Tag(records []model.CatalogRecord) []model.CatalogRecord {
	out := make([]model.CatalogRecord, len(records))
	counts := make(map[string]int)
	for i, r := range records {
		r.IndustryTag = t.Industry(r.BusinessName, r.Raw.Industry)
		r.SizeTag = t.Size(r.Raw.Listing.AskingPrice, r.Raw.Listing.Revenue)
		r.GeographyTag = t.Geography(r.Raw.Location)
		r.DealStatus = DealStatus(r.RecordType)
		counts[r.IndustryTag]++
		out[i] = r
	}
	zap.L().Info("pipeline: tagging complete",
		zap.Int("records", len(out)),
		zap.Any("industries", counts),
	)
	return out
}
