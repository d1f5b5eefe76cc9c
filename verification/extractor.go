package verification

import (
	"strings"
	"time"

	"github.com/grandhotel/checkin/pingone"
	"github.com/sirupsen/logrus"
)

// UserInfo is the flattened guest record derived from shared credentials.
// Derived, not authoritative: absent fields stay empty and a missing or
// unparsable birthdate leaves Age nil.
type UserInfo struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Address    string `json:"address,omitempty"`
	Birthdate  string `json:"birthdate,omitempty"`
	Age        *int   `json:"age,omitempty"`
}

// CredentialRecord is one credential flattened to a field map, keyed by the
// credential's primary type.
type CredentialRecord struct {
	Type   string            `json:"type"`
	Issuer string            `json:"issuer,omitempty"`
	Fields map[string]string `json:"fields"`
}

// ExtractionResult carries the flattened credentials and the user record
// derived from the first credential, when any exists.
type ExtractionResult struct {
	Credentials map[string]CredentialRecord `json:"credentials"`
	UserInfo    *UserInfo                   `json:"user_info,omitempty"`
}

// The provider is inconsistent about key naming; both observed casings are
// looked up per field and nothing beyond them.
var (
	firstNameKeys  = []string{"First Name", "firstName"}
	lastNameKeys   = []string{"Last Name", "lastName"}
	streetKeys     = []string{"Street", "street"}
	cityKeys       = []string{"City", "city"}
	postalCodeKeys = []string{"Postal Code", "postalCode"}
	birthdateKeys  = []string{"Birthdate", "birthdate"}
)

// Extract flattens the credential payload and derives a UserInfo from the
// first credential found. It never fails: malformed entries degrade to an
// empty result so a credential-detail problem cannot block an approved
// check-in.
func Extract(data *pingone.CredentialData) ExtractionResult {
	return extractAt(data, time.Now())
}

func extractAt(data *pingone.CredentialData, now time.Time) (result ExtractionResult) {
	result = ExtractionResult{Credentials: map[string]CredentialRecord{}}

	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("credential extraction panicked, returning empty result: %v", r)
			result = ExtractionResult{Credentials: map[string]CredentialRecord{}}
		}
	}()

	if data == nil {
		return result
	}

	for i, credential := range data.Credentials {
		fields := make(map[string]string, len(credential.Data))
		for _, field := range credential.Data {
			if field.Key == "" {
				continue
			}
			fields[field.Key] = field.Value
		}

		record := CredentialRecord{
			Type:   credentialType(credential),
			Issuer: credential.IssuerName,
			Fields: fields,
		}
		result.Credentials[record.Type] = record

		if i == 0 {
			result.UserInfo = buildUserInfo(fields, now)
		}
	}

	return result
}

func credentialType(credential pingone.Credential) string {
	for _, t := range credential.Types {
		// every credential carries the generic type first
		if t != "" && t != "VerifiableCredential" {
			return t
		}
	}
	if len(credential.Types) > 0 {
		return credential.Types[0]
	}
	return "credential"
}

func buildUserInfo(fields map[string]string, now time.Time) *UserInfo {
	info := &UserInfo{
		FirstName:  lookup(fields, firstNameKeys),
		LastName:   lookup(fields, lastNameKeys),
		Street:     lookup(fields, streetKeys),
		City:       lookup(fields, cityKeys),
		PostalCode: lookup(fields, postalCodeKeys),
		Birthdate:  lookup(fields, birthdateKeys),
	}

	info.FullName = joinParts(" ", info.FirstName, info.LastName)
	info.Address = joinParts(", ", info.Street, info.City, info.PostalCode)

	if info.Birthdate != "" {
		if birth, err := parseBirthdate(info.Birthdate); err == nil {
			age := ageAt(birth, now)
			info.Age = &age
		} else {
			logrus.Warnf("unparsable birthdate %q, leaving age unset", info.Birthdate)
		}
	}

	return info
}

func lookup(fields map[string]string, keys []string) string {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

func joinParts(sep string, parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			present = append(present, part)
		}
	}
	return strings.Join(present, sep)
}

func parseBirthdate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// ageAt computes whole years between birth and now, calendar-aware: the year
// difference drops by one until the birthday has passed.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
