package metadata

import (
	"errors"
	"fmt"
	"sync"

	"github.com/avatarnftme/anme-mint/internal/storage"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

var keyContract = []byte("m/contract")

// Collection is the JSON document behind the contract URI.
type Collection struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	ExternalLink string `json:"external_link"`
	FeeRecipient string `json:"fee_recipient"`
}

// Info is the mutable collection level metadata.
type Info struct {
	Webpage      string
	Description  string
	Image        string
	ExternalLink string
}

// Contract holds the collection metadata. Updates are persisted before they
// become visible when a database is attached.
type Contract struct {
	name         string
	symbol       string
	feeRecipient types.Address
	db           storage.DB

	mu   sync.RWMutex
	info Info
}

// NewContract creates the collection metadata. db may be nil.
func NewContract(name, symbol string, feeRecipient types.Address, db storage.DB) (*Contract, error) {
	c := &Contract{name: name, symbol: symbol, feeRecipient: feeRecipient, db: db}
	if db == nil {
		return c, nil
	}
	data, err := db.Get(keyContract)
	if errors.Is(err, storage.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load contract metadata: %w", err)
	}
	if err := storage.Decode(data, &c.info); err != nil {
		return nil, err
	}
	return c, nil
}

// Name returns the collection name.
func (c *Contract) Name() string { return c.name }

// Symbol returns the collection symbol.
func (c *Contract) Symbol() string { return c.symbol }

// Info returns the current metadata.
func (c *Contract) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// WebpageURI returns the official webpage.
func (c *Contract) WebpageURI() string {
	return c.Info().Webpage
}

// SetWebpageURI replaces the official webpage.
func (c *Contract) SetWebpageURI(uri string) error {
	return c.update(func(i *Info) { i.Webpage = uri })
}

// SetCollection replaces the contract URI fields.
func (c *Contract) SetCollection(description, image, link string) error {
	return c.update(func(i *Info) {
		i.Description = description
		i.Image = image
		i.ExternalLink = link
	})
}

// ContractURI renders the collection document as a data URI.
func (c *Contract) ContractURI() (string, error) {
	info := c.Info()
	return DataURI(Collection{
		Name:         c.name,
		Description:  info.Description,
		Image:        info.Image,
		ExternalLink: info.ExternalLink,
		FeeRecipient: c.feeRecipient.String(),
	})
}

func (c *Contract) update(fn func(*Info)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.info
	fn(&next)
	if c.db != nil {
		data, err := storage.Encode(next)
		if err != nil {
			return err
		}
		if err := c.db.Put(keyContract, data); err != nil {
			return fmt.Errorf("store contract metadata: %w", err)
		}
	}
	c.info = next
	return nil
}
