package models

// Provider environments.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// BankProvider is a bank's integration profile. Reference data, seeded
// out of band; the core never creates providers at runtime.
type BankProvider struct {
	Key               string `firestore:"key" json:"key"` // doc ID
	Name              string `firestore:"name" json:"name"`
	APIBaseURL        string `firestore:"apiBaseUrl" json:"apiBaseUrl"`
	AuthBaseURL       string `firestore:"authBaseUrl" json:"authBaseUrl,omitempty"`
	Environment       string `firestore:"environment" json:"environment"`
	SupportsAccounts  bool   `firestore:"supportsAccounts" json:"supportsAccounts"`
	SupportsPayments  bool   `firestore:"supportsPayments" json:"supportsPayments"`
	Active            bool   `firestore:"active" json:"active"`
	ClientSecretName  string `firestore:"clientSecretName" json:"-"`  // Secret Manager secret holding client credentials
	RequestsPerMinute int    `firestore:"requestsPerMinute" json:"-"` // published rate ceiling, 0 = default
}

// AuthURL returns the base URL OAuth endpoints hang off; some providers
// host authorization on a different origin than the data API.
func (p *BankProvider) AuthURL() string {
	if p.AuthBaseURL != "" {
		return p.AuthBaseURL
	}
	return p.APIBaseURL
}
