package store

import (
	"context"
	"encoding/json"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Secrets path
// projects/{project}/secrets/{provider.ClientSecretName}/versions/latest

// ClientCredentials is the OAuth client registration a provider issued
// to this deployment.
type ClientCredentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type providerSecretsStore struct {
	client    *secretmanager.Client
	projectID string
}

func NewProviderSecretsStore(client *secretmanager.Client, projectID string) *providerSecretsStore {
	return &providerSecretsStore{client: client, projectID: projectID}
}

func (s *providerSecretsStore) GetClientCredentials(ctx context.Context, secretName string) (*ClientCredentials, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, secretName),
	})
	if err != nil {
		return nil, err
	}
	var creds ClientCredentials
	if err := json.Unmarshal(res.Payload.Data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}
