package bootstrap

import (
	"context"

	"cloud.google.com/go/firestore"
)

// InitFirestore connects to the project database backing the
// company-scoped banking collections.
func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	return firestore.NewClient(ctx, projectID)
}
