package domain

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field names used in validation errors.
const (
	FieldFamilyName      = "familyName"
	FieldNumberOfMembers = "numberOfMembers"
	FieldPlaceOfVisit    = "placeOfVisit"
	FieldGiftAmount      = "giftAmount"
	FieldPhoneNumber     = "phoneNumber"
	FieldID              = "id"
)

const minNameLen = 2

const (
	maxGiftInputLen  = 20
	maxGiftFractions = 2
)

// MaxGiftAmount is the largest Aaher amount accepted.
var MaxGiftAmount = decimal.New(1, 12)

// ValidateFamilyName trims s and requires at least two characters.
func ValidateFamilyName(s string) (string, *FieldError) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minNameLen {
		return "", &FieldError{Field: FieldFamilyName, Message: "must be at least 2 characters"}
	}
	return s, nil
}

// ValidateNumberOfMembers parses s as a whole number of at least one.
func ValidateNumberOfMembers(s string) (int, *FieldError) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &FieldError{Field: FieldNumberOfMembers, Message: "must be a whole number"}
	}
	if n < 1 {
		return 0, &FieldError{Field: FieldNumberOfMembers, Message: "must be at least 1"}
	}
	return n, nil
}

// ValidatePlaceOfVisit accepts one of Places.
func ValidatePlaceOfVisit(s string) (Place, *FieldError) {
	p, ok := ParsePlace(s)
	if !ok {
		return "", &FieldError{Field: FieldPlaceOfVisit, Message: "must be one of Pune, Indore, Pune-Indore"}
	}
	return p, nil
}

// ValidateGiftAmount parses s as a non-negative amount with at most two
// decimal places, written without an exponent.
func ValidateGiftAmount(s string) (decimal.Decimal, *FieldError) {
	s = strings.TrimSpace(s)
	if len(s) > maxGiftInputLen {
		return decimal.Zero, &FieldError{Field: FieldGiftAmount, Message: "is too large"}
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, &FieldError{Field: FieldGiftAmount, Message: "must be a plain number"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &FieldError{Field: FieldGiftAmount, Message: "must be a number"}
	}
	if d.IsNegative() {
		return decimal.Zero, &FieldError{Field: FieldGiftAmount, Message: "must not be negative"}
	}
	if !d.Equal(d.Truncate(maxGiftFractions)) {
		return decimal.Zero, &FieldError{Field: FieldGiftAmount, Message: "must have at most 2 decimal places"}
	}
	if d.GreaterThan(MaxGiftAmount) {
		return decimal.Zero, &FieldError{Field: FieldGiftAmount, Message: "is too large"}
	}
	return d, nil
}

// ValidatePhoneNumber never fails; the number is optional and free-form.
func ValidatePhoneNumber(s string) (string, *FieldError) {
	return strings.TrimSpace(s), nil
}

// Validate checks every field of in and returns the typed guest, or a
// *ValidationError listing all violations.
func (in GuestInput) Validate() (*Guest, error) {
	var violations []FieldError
	collect := func(fe *FieldError) {
		if fe != nil {
			violations = append(violations, *fe)
		}
	}

	name, fe := ValidateFamilyName(in.FamilyName)
	collect(fe)
	members, fe := ValidateNumberOfMembers(in.NumberOfMembers)
	collect(fe)
	place, fe := ValidatePlaceOfVisit(in.PlaceOfVisit)
	collect(fe)
	amount, fe := ValidateGiftAmount(in.GiftAmount)
	collect(fe)
	phone, fe := ValidatePhoneNumber(in.PhoneNumber)
	collect(fe)

	if len(violations) > 0 {
		return nil, &ValidationError{Errors: violations}
	}
	return &Guest{
		FamilyName:      name,
		NumberOfMembers: members,
		PlaceOfVisit:    place,
		GiftAmount:      amount,
		PhoneNumber:     phone,
	}, nil
}

// FieldErrors extracts the field violations carried by err, if any.
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return []FieldError{*fe}
	}
	return nil
}
