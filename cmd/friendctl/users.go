package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendpin/friendpin-backend/internal/storage"
	"github.com/friendpin/friendpin-backend/internal/users/domain"
	"github.com/friendpin/friendpin-backend/internal/users/reconcile"
)

// fixture is the YAML layout read by seed and written by dump
type fixture struct {
	Users []fixtureUser `yaml:"users"`
}

// fixtureUser keeps absent fields absent so seeded documents can exercise
// the read-side defaults.
type fixtureUser struct {
	ID                string     `yaml:"user_id"`
	Name              *string    `yaml:"name,omitempty"`
	Status            *string    `yaml:"status,omitempty"`
	CreatedAt         *time.Time `yaml:"created_at,omitempty"`
	Memo              *string    `yaml:"memo,omitempty"`
	Address           *string    `yaml:"address,omitempty"`
	Friends           []string   `yaml:"friends,omitempty"`
	DestinationUserID string     `yaml:"destination_user_id,omitempty"`
	CommingFriends    []string   `yaml:"comming_friends,omitempty"`
}

func (u fixtureUser) document() map[string]interface{} {
	data := map[string]interface{}{}
	if u.Name != nil {
		data[domain.FieldName] = *u.Name
	}
	if u.Status != nil {
		data[domain.FieldStatus] = *u.Status
	}
	if u.CreatedAt != nil {
		data[domain.FieldCreatedAt] = u.CreatedAt.UTC()
	}
	if u.Memo != nil {
		data[domain.FieldMemo] = *u.Memo
	}
	if u.Address != nil {
		data[domain.FieldAddress] = *u.Address
	}
	if len(u.Friends) > 0 {
		data[domain.FieldFriends] = u.Friends
	}
	if u.DestinationUserID != "" {
		data[domain.FieldDestinationUserID] = u.DestinationUserID
	}
	if len(u.CommingFriends) > 0 {
		data[domain.FieldCommingFriends] = u.CommingFriends
	}
	return data
}

func fromUser(u domain.User) fixtureUser {
	createdAt := u.CreatedAt
	return fixtureUser{
		ID:                u.ID,
		Name:              &u.Name,
		Status:            &u.Status,
		CreatedAt:         &createdAt,
		Memo:              &u.Memo,
		Address:           &u.Address,
		Friends:           u.Friends,
		DestinationUserID: u.DestinationUserID,
		CommingFriends:    u.CommingFriends,
	}
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users from a YAML fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
				n, err := runSeed(ctx, st, f)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture path (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Export all users as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
				return runDump(ctx, st, cmd.OutOrStdout(), time.Now())
			})
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove stale incoming-friend entries once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
				return runReconcile(ctx, st, dryRun, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report stale entries without writing")
	return cmd
}

func runSeed(ctx context.Context, st storage.Store, r io.Reader) (int, error) {
	var fx fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		return 0, fmt.Errorf("failed to parse fixture: %w", err)
	}

	for i, u := range fx.Users {
		if u.ID == "" {
			return i, fmt.Errorf("users[%d]: user_id is required", i)
		}
		if err := st.Put(ctx, u.ID, u.document()); err != nil {
			return i, fmt.Errorf("failed to write user %s: %w", u.ID, err)
		}
	}
	return len(fx.Users), nil
}

func runDump(ctx context.Context, st storage.Store, w io.Writer, now time.Time) error {
	docs, err := st.List(ctx)
	if err != nil {
		return err
	}

	fx := fixture{Users: make([]fixtureUser, 0, len(docs))}
	for _, d := range docs {
		fx.Users = append(fx.Users, fromUser(domain.Normalize(d.ID, d.Data, now)))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fx); err != nil {
		return err
	}
	return enc.Close()
}

func runReconcile(ctx context.Context, st storage.Store, dryRun bool, w io.Writer) error {
	res, err := reconcile.New(st).DryRun(dryRun).Run(ctx)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(w).Encode(res)
}
