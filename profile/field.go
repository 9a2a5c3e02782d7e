package profile

import (
	"fmt"
	"strings"

	"github.com/Hazem-dh/FHEarts/fhe"
)

// Field identifies one encrypted attribute of a profile.
type Field uint8

const (
	CountryCode Field = iota
	LeadingZeroCount
	PhoneDigits
	Age
	Location
	Gender
	InterestedIn
	Preference1
	Preference2
	Preference3

	NumFields = int(Preference3) + 1
)

var fieldNames = [NumFields]string{
	"countryCode", "leadingZeroCount", "phoneDigits", "age", "location",
	"gender", "interestedIn", "preference1", "preference2", "preference3",
}

func (f Field) String() string {
	if int(f) < NumFields {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

// Type returns the ciphertext type a field must be submitted as.
func (f Field) Type() fhe.Type {
	if f == PhoneDigits {
		return fhe.TypeUint64
	}
	return fhe.TypeUint8
}

// ParseField resolves a field by name, case-insensitively.
func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown profile field %q", name)
}

// ContactFields are the fields disclosed to a counterpart on mutual phone
// consent.
var ContactFields = []Field{CountryCode, LeadingZeroCount, PhoneDigits}

// Preferences are the fields compared by the scorer, in order.
var Preferences = []Field{Preference1, Preference2, Preference3}

// Values is a plaintext profile, as entered by a participant before
// encryption.
type Values [NumFields]uint64

// Inputs converts plaintext values into encryption inputs in field order.
func (v Values) Inputs() []fhe.InputValue {
	in := make([]fhe.InputValue, NumFields)
	for i := range v {
		in[i] = fhe.InputValue{Type: Field(i).Type(), Value: v[i]}
	}
	return in
}
