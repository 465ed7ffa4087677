package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// NotFoundError covers missing resources, including cross-company lookups
// which must fail closed as not-found rather than forbidden.
type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// ProviderConfigError is a configuration failure: unknown or inactive
// bank provider, or a capability the provider does not support. Never
// retried.
type ProviderConfigError struct {
	ErrorMessage
	ProviderKey string
}

// AuthExpiredError means no valid access token exists and no refresh is
// possible. The caller must re-run the authorization flow.
type AuthExpiredError struct {
	ErrorMessage
	BankCode string
}

// ExternalServiceError wraps provider/network failures. Transient errors
// (timeouts, 5xx) are eligible for the queue's retry policy.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
}

// ParseError marks a malformed statement; individual bad rows are
// skipped, this is only returned when a whole file is unreadable.
type ParseError struct {
	ErrorMessage
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewProviderConfigError(providerKey, message string) *ProviderConfigError {
	return &ProviderConfigError{
		ErrorMessage: ErrorMessage{Message: message},
		ProviderKey:  providerKey,
	}
}

func NewAuthExpiredError(bankCode, message string) *AuthExpiredError {
	return &AuthExpiredError{
		ErrorMessage: ErrorMessage{Message: message},
		BankCode:     bankCode,
	}
}

func NewExternalServiceError(service, message string, transient bool) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
	}
}

func NewParseError(message string) *ParseError {
	return &ParseError{ErrorMessage: ErrorMessage{Message: message}}
}
