package dto

import (
	"bytes"
	"encoding/json"
	"errors"
)

// LooseString accepts a JSON string or number and keeps its text. Numbers
// keep their literal form, so 34 and "34" both become "34".
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty value")
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("expected a string or a number")
	}
	*s = LooseString(n.String())
	return nil
}

// StringPtr returns nil when the field was absent or null.
func (s *LooseString) StringPtr() *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// UserRegisterRequest payload for new users. Every field is required; a nil
// pointer means the client left it out.
type UserRegisterRequest struct {
	Lastname  *string      `json:"lastname"`
	Firstname *string      `json:"firstname"`
	Age       *LooseString `json:"age"`
	Email     *string      `json:"email"`
	Password  *string      `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserModifyRequest is a partial profile update.
type UserModifyRequest struct {
	Lastname  *string      `json:"lastname"`
	Firstname *string      `json:"firstname"`
	Age       *LooseString `json:"age"`
	Email     *string      `json:"email"`
	Password  *string      `json:"password"`
}

// TokenPairResponse is returned by login.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessTokenResponse is returned by refresh.
type AccessTokenResponse struct {
	Access string `json:"access"`
}
