package model

import (
	"encoding/base64"
	"fmt"
	"time"
)

// DHIS2Instance is a configured remote DHIS2 server. The password is
// stored base64-encoded at rest and decoded only when a request is made.
type DHIS2Instance struct {
	Key         string    `json:"key" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	BaseURL     string    `json:"baseUrl" bson:"baseUrl"`
	Username    string    `json:"username" bson:"username"`
	PasswordB64 string    `json:"-" bson:"passwordB64"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Password decodes the stored credential.
func (i *DHIS2Instance) Password() (string, error) {
	raw, err := base64.StdEncoding.DecodeString(i.PasswordB64)
	if err != nil {
		return "", fmt.Errorf("instance %s: invalid stored credential: %w", i.Key, err)
	}
	return string(raw), nil
}

// SetPassword stores the credential base64-encoded.
func (i *DHIS2Instance) SetPassword(plain string) {
	i.PasswordB64 = base64.StdEncoding.EncodeToString([]byte(plain))
}
