package address

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Address is an immutable delivery location. Orders reference it by id.
type Address struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	DoorNumber string    `json:"door_number" validate:"required"`
	Street     string    `json:"street" validate:"required"`
	City       string    `json:"city" validate:"required"`
	State      string    `json:"state" validate:"required"`
	Country    string    `json:"country" validate:"required"`
	PinCode    int       `json:"pin_code" validate:"gt=0"`
	CreatedAt  time.Time `json:"created_at"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

// Normalize trims the text fields.
func (a Address) Normalize() Address {
	a.DoorNumber = strings.TrimSpace(a.DoorNumber)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Country = strings.TrimSpace(a.Country)
	return a
}

// Validate reports every invalid field as a VALIDATION_ERROR detail.
func (a Address) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid address").WithDetails(details)
}

func (a Address) toModel() models.Address {
	return models.Address{
		ID:         a.ID,
		UserID:     a.UserID,
		DoorNumber: a.DoorNumber,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		Country:    a.Country,
		PinCode:    a.PinCode,
	}
}

// FromModel converts a stored row.
func FromModel(m models.Address) Address {
	return Address{
		ID:         m.ID,
		UserID:     m.UserID,
		DoorNumber: m.DoorNumber,
		Street:     m.Street,
		City:       m.City,
		State:      m.State,
		Country:    m.Country,
		PinCode:    m.PinCode,
		CreatedAt:  m.CreatedAt,
	}
}
