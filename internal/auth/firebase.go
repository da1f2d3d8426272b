package auth

import (
	"context"
	"fmt"

	gcfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/friendpin/friendpin-backend/config"
)

// App bundles the Firebase clients the service uses
type App struct {
	Firebase *firebase.App
}

// InitializeFirebase initializes the Firebase Admin SDK. Without a
// credentials path the SDK falls back to application default credentials.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*App, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	return &App{Firebase: app}, nil
}

// Auth returns the ID-token verification client
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	authClient, err := a.Firebase.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}
	return authClient, nil
}

// Firestore returns a Firestore client for the app's project
func (a *App) Firestore(ctx context.Context) (*gcfirestore.Client, error) {
	client, err := a.Firebase.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}
	return client, nil
}
