package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	"github.com/mkfin/banking-backend/internal/config"
	"github.com/mkfin/banking-backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	KMS           *gcpkms.KeyManagementClient
	SecretManager *secretmanager.Client
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = InitKMS(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.SecretManager, err = InitSecretManager(applicationCtx)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
	if bs.KMS != nil {
		bs.KMS.Close()
	}
	if bs.SecretManager != nil {
		bs.SecretManager.Close()
	}
}
