package pipeline

import (
	"context"
	"errors"
)

// pageConnector serves pages from memory.
type pageConnector struct {
	listings map[string]string
	profiles map[string]string
	fetched  []string
}

func (c *pageConnector) FetchListingPage(_ context.Context, url string) (string, error) {
	c.fetched = append(c.fetched, url)
	if html, ok := c.listings[url]; ok {
		return html, nil
	}
	return "", errors.New("not found")
}

func (c *pageConnector) FetchBrokerPage(_ context.Context, url string) (string, error) {
	c.fetched = append(c.fetched, url)
	if html, ok := c.profiles[url]; ok {
		return html, nil
	}
	return "", errors.New("not found")
}

const structuredListing = `<html><head><title>Sunrise Bakery</title><script>var x = "Broker: Fake Person";</script></head><body>
<h1>Sunrise Bakery</h1>
<div class="listing-broker">
  <span class="broker-name">Broker: Jane Doe</span>
  <span class="brokerage-name">Sunbelt Business Brokers LLC</span>
  <a href="mailto:Jane@Sunbelt.com?subject=Bakery">Email</a>
  <a href="tel:(512) 555-0100">Call</a>
  <a href="/brokers/jane-doe">View Profile</a>
</div>
<div class="location">Austin, TX</div>
<div class="category">Bakery</div>
</body></html>`

const labelledListing = `<html><body><div>
<p>Listed by: Robert Brown</p>
<p>Brokerage: Lone Star Brokers Inc.</p>
<p>Call 214-555-0199 for details</p>
<p>Located in Dallas, TX</p>
</div></body></html>`

const formOnlyListing = `<html><body><form class="inquiry"><input name="email"></form>
<p>Contact the seller using the form above.</p></body></html>`
