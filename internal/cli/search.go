package cli

import (
	"strings"

	"github.com/semmy-space/keyring/internal/output"
	"github.com/semmy-space/keyring/pkg/keyring"
)

// SearchCmd implements search
type SearchCmd struct {
	Terms []string `arg:"" optional:"" help:"Query terms; the sample store accepts * and ? wildcards and re: regexps" placeholder:"KEY=VALUE"`
}

type searchRow struct {
	Service   string `json:"service"`
	User      string `json:"user"`
	Modifiers string `json:"modifiers,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

var searchColumns = []output.Column{
	{Name: "SERVICE", Key: "Service"},
	{Name: "USER", Key: "User"},
	{Name: "MODIFIERS", Key: "Modifiers", Width: 40},
	{Name: "UUID", Key: "UUID"},
	{Name: "COMMENT", Key: "Comment", Width: 30},
}

func (cmd *SearchCmd) Run(sp *StoreProvider, g *Globals, fp *FormatterProvider) error {
	query, err := parsePairs(cmd.Terms)
	if err != nil {
		return err
	}
	if _, err := sp.Store(); err != nil {
		return err
	}

	var entries []*keyring.Entry
	err = withRetry(g.Retries, func() error {
		var err error
		entries, err = keyring.SearchDefault(query)
		return err
	})
	if err != nil {
		return err
	}

	rows := make([]searchRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, describe(e))
	}
	return fp.Formatter.PrintList(rows, searchColumns)
}

// describe summarizes a search hit. Attribute errors leave the columns empty.
func describe(e *keyring.Entry) searchRow {
	key := e.Key()
	pairs := make([]string, len(key.Modifiers))
	for i, mod := range key.Modifiers {
		pairs[i] = mod.Key + "=" + mod.Value
	}
	row := searchRow{
		Service:   key.Service,
		User:      key.User,
		Modifiers: strings.Join(pairs, ","),
	}
	if attrs, err := e.GetAttributes(); err == nil {
		row.UUID = attrs["uuid"]
		row.Comment = attrs["comment"]
	}
	return row
}
