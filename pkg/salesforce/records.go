package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account is the subset of Account fields the sync reads back.
type Account struct {
	ID      string `json:"Id" salesforce:"Id"`
	Name    string `json:"Name" salesforce:"Name"`
	Website string `json:"Website" salesforce:"Website"`
}

// FindAccountByName returns the first Account named name, or nil.
func FindAccountByName(ctx context.Context, c Client, name string) (*Account, error) {
	soql := fmt.Sprintf("SELECT Id, Name, Website FROM Account WHERE Name = '%s' LIMIT 1", escapeSoql(name))

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrapf(err, "sf: find account %q", name)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// CreateAccount inserts an Account and returns its ID.
func CreateAccount(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if fields["Name"] == nil || fields["Name"] == "" {
		return "", eris.New("sf: account Name is required")
	}
	id, err := c.InsertOne(ctx, "Account", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create account")
	}
	return id, nil
}

// EnsureAccount returns the ID of the Account named name, creating it with
// fields when absent. The bool reports whether it was created.
func EnsureAccount(ctx context.Context, c Client, name string, fields map[string]any) (string, bool, error) {
	existing, err := FindAccountByName(ctx, c, name)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["Name"] = name
	id, err := CreateAccount(ctx, c, fields)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// InsertContacts inserts contacts in batches of 200. Results for batches
// already sent are returned alongside any error.
func InsertContacts(ctx context.Context, c Client, contacts []map[string]any) ([]CollectionResult, error) {
	var all []CollectionResult
	for start := 0; start < len(contacts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(contacts))
		results, err := c.InsertCollection(ctx, "Contact", contacts[start:end])
		if err != nil {
			return all, eris.Wrapf(err, "sf: insert contacts batch %d-%d", start, end)
		}
		all = append(all, results...)
	}
	return all, nil
}

func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
