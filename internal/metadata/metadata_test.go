package metadata

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/internal/storage"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deployer = types.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

func johnDoe(id uint64) registry.Item {
	return registry.Item{
		ID:    id,
		Owner: deployer,
		Attributes: registry.Attributes{
			FirstName:    "John",
			LastName:     "Doe",
			Website:      "https://www.avatarNFT.me",
			BodyType:     "Regular",
			OutfitGender: "Male",
			SkinTone:     "Light",
			CreatedAt:    "2021-08-01T00:00:00.000Z",
			ImageURI:     "https://www.avatarNFT.me/image.png",
		},
	}
}

func TestTokenURI_Exact(t *testing.T) {
	uri, err := NewFormatter("ANME").TokenURI(johnDoe(0))
	require.NoError(t, err)

	want := `{"name":"ANME #0 of John","first_name":"John","last_name":"Doe",` +
		`"external_url":"https://www.avatarNFT.me","description":"An NFT that represents the Avatar of John",` +
		`"attributes":[{"trait_type":"skinTone","value":"Light"},{"trait_type":"bodyType","value":"Regular"},` +
		`{"trait_type":"outfitGender","value":"Male"}],"image":"https://www.avatarNFT.me/image.png",` +
		`"created_at":"2021-08-01T00:00:00.000Z"}`

	require.True(t, strings.HasPrefix(uri, DataURIPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, DataURIPrefix))
	require.NoError(t, err)
	assert.Equal(t, want, string(raw))
}

func TestTokenURI_NoHTMLEscaping(t *testing.T) {
	it := johnDoe(3)
	it.Attributes.Website = "https://example.org/?a=1&b=2"

	uri, err := NewFormatter("ANME").TokenURI(it)
	require.NoError(t, err)

	var doc Token
	require.NoError(t, DecodeDataURI(uri, &doc))
	assert.Equal(t, "https://example.org/?a=1&b=2", doc.ExternalURL)
	assert.Equal(t, "ANME #3 of John", doc.Name)

	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, DataURIPrefix))
	assert.NotContains(t, string(raw), `\u0026`)
}

func TestDecodeDataURI_Rejects(t *testing.T) {
	var doc Token
	assert.Error(t, DecodeDataURI("https://example.org", &doc))
	assert.Error(t, DecodeDataURI(DataURIPrefix+"%%%", &doc))
}

func TestContract_URI(t *testing.T) {
	c, err := NewContract("AvatarNftMe", "ANME", deployer, nil)
	require.NoError(t, err)

	require.NoError(t, c.SetWebpageURI("https://www.avatarNFT.me"))
	assert.Equal(t, "https://www.avatarNFT.me", c.WebpageURI())

	require.NoError(t, c.SetCollection(
		"Avatar NFT Me is a collection of 10,000 unique avatars.",
		"https://www.avatarNFT.me/image.png",
		"https://www.avatarNFT.me",
	))

	uri, err := c.ContractURI()
	require.NoError(t, err)
	var doc Collection
	require.NoError(t, DecodeDataURI(uri, &doc))
	assert.Equal(t, Collection{
		Name:         "AvatarNftMe",
		Description:  "Avatar NFT Me is a collection of 10,000 unique avatars.",
		Image:        "https://www.avatarNFT.me/image.png",
		ExternalLink: "https://www.avatarNFT.me",
		FeeRecipient: deployer.String(),
	}, doc)
}

func TestContract_Persistence(t *testing.T) {
	db := storage.NewMemory()
	c1, err := NewContract("AvatarNftMe", "ANME", deployer, db)
	require.NoError(t, err)
	require.NoError(t, c1.SetWebpageURI("https://www.avatarNFT.me"))
	require.NoError(t, c1.SetCollection("desc", "img", "link"))

	c2, err := NewContract("AvatarNftMe", "ANME", deployer, db)
	require.NoError(t, err)
	assert.Equal(t, c1.Info(), c2.Info())
}
