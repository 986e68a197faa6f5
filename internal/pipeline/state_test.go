package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/broker-catalog/internal/model"
)

func TestState_AppendDoesNotAlias(t *testing.T) {
	base := NewState(nil).
		AppendBroker(model.BrokerRecord{Name: "A"}).
		AppendBroker(model.BrokerRecord{Name: "B"})

	left := base.AppendBroker(model.BrokerRecord{Name: "left"})
	right := base.AppendBroker(model.BrokerRecord{Name: "right"})

	assert.Len(t, base.Brokers(), 2)
	assert.Equal(t, "left", left.Brokers()[2].Name)
	assert.Equal(t, "right", right.Brokers()[2].Name)
}

func TestState_AccessorsReturnCopies(t *testing.T) {
	s := NewState([]model.ListingRecord{{ListingURL: "https://a"}})
	got := s.Listings()
	got[0].ListingURL = "mutated"
	assert.Equal(t, "https://a", s.Listings()[0].ListingURL)
}

func TestState_WithPage(t *testing.T) {
	first := NewState(nil).WithPage("https://a", "<a/>")
	second := first.WithPage("https://b", "<b/>")

	_, ok := first.Page("https://b")
	assert.False(t, ok)
	html, ok := second.Page("https://a")
	assert.True(t, ok)
	assert.Equal(t, "<a/>", html)
}

func TestState_AppendError(t *testing.T) {
	s := NewState(nil).AppendError(nil)
	assert.Empty(t, s.Errors())

	s = s.AppendError(errors.New("boom"))
	assert.Len(t, s.Errors(), 1)
}
