package normalize

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"$1.2M", 1_200_000},
		{"$500k", 500_000},
		{"$500K", 500_000},
		{"Call for price", 0},
		{"", 0},
		{"Not Disclosed", 0},
		{"N/A", 0},
		{"none", 0},
		{"$3,500,000", 3_500_000},
		{"1200000", 1_200_000},
		{"$2.5 M", 2_500_000},
		{"$1,234.56", 1234},
		{"$1.2M - $1.5M", 1_200_000},
		{"price on request", 0},
		{"$1,500,000 motivated seller", 1_500_000},
		{"$350,000 monthly", 350_000},
		{"$2 kitchens included", 2},
		{"$1.5 million", 1_500_000},
		{"2.5m.", 2_500_000},
		{"99999999999999999999999m", math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMoney(tt.in))
		})
	}
}

func TestParseMoney_IdempotentOnOwnOutput(t *testing.T) {
	for _, in := range []string{"$1.2M", "$500k", "$3,500,000", "$75,000"} {
		once := ParseMoney(in)
		assert.Equal(t, once, ParseMoney(strconv.FormatInt(once, 10)), in)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john   smith", "John Smith"},
		{"John Smith", "John Smith"},
		{"JOHN SMITH", "John Smith"},
		{"Mr. John Smith", "John Smith"},
		{"dr jane doe", "Jane Doe"},
		{"Robert Brown Jr.", "Robert Brown"},
		{"Mrs. Ann Lee, Sr.", "Ann Lee"},
		{"Drew Barrymore", "Drew Barrymore"},
		{"dr.john smith", "John Smith"},
		{"Mrs.jane doe", "Jane Doe"},
		{"Srđan Petrović", "Srđan Petrović"},
		{"Mr.Dr. Ann Lee", "Ann Lee"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestName_Idempotent(t *testing.T) {
	for _, in := range []string{"john   smith", "Mr. John Smith", "Robert Brown Jr.", "mary-kate o'neil", "  ms   ANN  lee ",
		"dr.john smith", "Mrs.jane doe", "Srđan Petrović", "sr.dr.mr ms", "Smith, Jr.,", "DR.JOHN  SR."} {
		once := Name(in)
		assert.Equal(t, once, Name(once), in)
	}
}

func TestFirm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Business Brokers, LLC", "Acme Business Brokers"},
		{"Sunbelt  Inc.", "Sunbelt"},
		{"Transworld Corp", "Transworld"},
		{"Murphy Partners LLP", "Murphy Partners"},
		{"Holdings LLC, Inc.", "Holdings"},
		{"Help Desk Help", "Help Desk Help"},
		{"LLC", "LLC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Firm(tt.in), tt.in)
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "nan", "NaN", "None", "n/a", " N/A ", "Not Available"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	assert.False(t, IsPlaceholder("jane@brokers.com"))
}

func TestFieldByKeyword(t *testing.T) {
	text := "Asking Price: $1,200,000\nGross Revenue: $2.5M\nCash Flow: $450K."

	v, ok := FieldByKeyword("Asking Price", text)
	assert.True(t, ok)
	assert.Equal(t, "$1,200,000", v)

	v, ok = FieldByKeyword("revenue", text)
	assert.True(t, ok)
	assert.Equal(t, "$2.5M", v)

	v, ok = FieldByKeyword("cash flow", text)
	assert.True(t, ok)
	assert.Equal(t, "$450K", v)

	_, ok = FieldByKeyword("ebitda", text)
	assert.False(t, ok)
}

func TestFieldByKeyword_FirstPassWins(t *testing.T) {
	// Both passes could match; the adjacent value is preferred.
	text := "asking $900,000 (was asking more than $1,000,000)"
	v, ok := FieldByKeyword("asking", text)
	assert.True(t, ok)
	assert.Equal(t, "$900,000", v)

	// Only the loose pass matches.
	v, ok = FieldByKeyword("asking", "Asking price is firm at $750,000")
	assert.True(t, ok)
	assert.Equal(t, "$750,000", v)
}

func TestUsableEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Jane.Doe@Brokers.com", "jane.doe@brokers.com", true},
		{"noreply@brokers.com", "", false},
		{"someone@example.com", "", false},
		{"test@brokers.com", "", false},
		{"not-an-email", "", false},
	}
	for _, tt := range tests {
		got, ok := UsableEmail(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFindMailtos(t *testing.T) {
	html := `<a href="mailto:Jane@Brokers.com?subject=Listing">Email</a> <a href='mailto:bob@firm.net'>Bob</a>`
	assert.Equal(t, []string{"Jane@Brokers.com", "bob@firm.net"}, FindMailtos(html))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"(512) 555-0142", "+1-512-555-0142", true},
		{"512.555.0142", "+1-512-555-0142", true},
		{"+1 512 555 0142", "+1-512-555-0142", true},
		{"001-1-512-555-0142", "+1-512-555-0142", true},
		{"555-0142", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Phone(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFindPhone(t *testing.T) {
	p, ok := FindPhone("Call our office at (214) 555-0199 today")
	assert.True(t, ok)
	assert.Equal(t, "+1-214-555-0199", p)

	_, ok = FindPhone("no digits here")
	assert.False(t, ok)

	p, ok = FindPhone("Phone: 005125550100")
	assert.True(t, ok)
	assert.Equal(t, "+1-512-555-0100", p)

	p, ok = FindPhone("Direct 512.555.0142\nListed since 2019")
	assert.True(t, ok)
	assert.Equal(t, "+1-512-555-0142", p)

	_, ok = FindPhone("Est. 1998, 12 employees")
	assert.False(t, ok)
}

func TestExcelSafePhone(t *testing.T) {
	assert.Equal(t, `="+1-512-555-0142"`, ExcelSafePhone("+1-512-555-0142"))
	assert.Equal(t, "", ExcelSafePhone("  "))
	assert.Equal(t, "+1-512-555-0142", UnwrapExcelPhone(`="+1-512-555-0142"`))
	assert.Equal(t, "+1-512-555-0142", UnwrapExcelPhone("+1-512-555-0142"))
}

func TestStateCode(t *testing.T) {
	code, ok := StateCode("Austin, TX 78701")
	assert.True(t, ok)
	assert.Equal(t, "TX", code)

	_, ok = StateCode("Greater Denver Area")
	assert.False(t, ok)

	// Lower-case and embedded pairs do not count.
	_, ok = StateCode("txt, Oregon")
	assert.False(t, ok)
}

func TestFindCityState(t *testing.T) {
	loc, ok := FindCityState("Business located in San Antonio, TX with 12 staff")
	assert.True(t, ok)
	assert.Equal(t, "San Antonio, TX", loc)

	loc, ok = FindCityState("Office:Miami,FL")
	assert.True(t, ok)
	assert.Equal(t, "Miami,FL", loc)

	_, ok = FindCityState("no location given")
	assert.False(t, ok)
}
