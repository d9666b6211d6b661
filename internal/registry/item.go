package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidAttributes is returned when item attributes fail validation.
var ErrInvalidAttributes = errors.New("invalid attributes")

var validate = validator.New()

// Attributes describe the avatar an item represents.
type Attributes struct {
	FirstName    string `json:"first_name" validate:"required,max=64"`
	LastName     string `json:"last_name" validate:"max=64"`
	Website      string `json:"website" validate:"omitempty,url,max=256"`
	BodyType     string `json:"body_type" validate:"required,max=32"`
	OutfitGender string `json:"outfit_gender" validate:"required,max=32"`
	SkinTone     string `json:"skin_tone" validate:"required,max=32"`
	CreatedAt    string `json:"created_at" validate:"required,max=64"`
	ImageURI     string `json:"image" validate:"required,url,max=512"`
}

// Validate checks the attribute shape. Callers run it before minting.
func (a Attributes) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidAttributes, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidAttributes, strings.Join(fields, ", "))
}

// Item is an issued collectible. It never changes after mint.
type Item struct {
	ID         uint64        `json:"id"`
	Owner      types.Address `json:"owner"`
	Attributes Attributes    `json:"attributes"`
	MintedAt   time.Time     `json:"minted_at"`
}
