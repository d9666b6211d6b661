// Package metadata renders item and collection metadata as base64 JSON
// data URIs.
package metadata

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/avatarnftme/anme-mint/internal/registry"
)

// DataURIPrefix starts every rendered URI.
const DataURIPrefix = "data:application/json;base64,"

// Trait is one entry of the attributes list.
type Trait struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Token is the JSON document behind a token URI. Field order is the
// rendered key order.
type Token struct {
	Name        string  `json:"name"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	ExternalURL string  `json:"external_url"`
	Description string  `json:"description"`
	Attributes  []Trait `json:"attributes"`
	Image       string  `json:"image"`
	CreatedAt   string  `json:"created_at"`
}

// Formatter renders token URIs for one collection.
type Formatter struct {
	Symbol string
}

// NewFormatter creates a formatter for the collection symbol.
func NewFormatter(symbol string) *Formatter {
	return &Formatter{Symbol: symbol}
}

// Document builds the metadata document of it.
func (f *Formatter) Document(it registry.Item) Token {
	a := it.Attributes
	return Token{
		Name:        fmt.Sprintf("%s #%d of %s", f.Symbol, it.ID, a.FirstName),
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		ExternalURL: a.Website,
		Description: "An NFT that represents the Avatar of " + a.FirstName,
		Attributes: []Trait{
			{TraitType: "skinTone", Value: a.SkinTone},
			{TraitType: "bodyType", Value: a.BodyType},
			{TraitType: "outfitGender", Value: a.OutfitGender},
		},
		Image:     a.ImageURI,
		CreatedAt: a.CreatedAt,
	}
}

// TokenURI renders the data URI of it.
func (f *Formatter) TokenURI(it registry.Item) (string, error) {
	return DataURI(f.Document(it))
}

// DataURI encodes v as base64 JSON. HTML characters are left unescaped so
// URLs in the document survive verbatim.
func DataURI(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")
	return DataURIPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeDataURI reverses DataURI into v.
func DecodeDataURI(uri string, v interface{}) error {
	if len(uri) < len(DataURIPrefix) || uri[:len(DataURIPrefix)] != DataURIPrefix {
		return fmt.Errorf("not a base64 JSON data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(DataURIPrefix):])
	if err != nil {
		return fmt.Errorf("decode base64: %w", err)
	}
	return json.Unmarshal(raw, v)
}
