package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/phonocorrect/internal/cli"
	"github.com/Veraticus/phonocorrect/internal/cloudsync"
	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/config"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push or pull your rules to the configured backend",
		Long: `Copy the custom rule set to or from the configured sync backend.

The file backend writes to sync.dir. The redis backend stores the rules
under sync.redis.key. A pull replaces the local custom rules with the
remote copy.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Upload the local rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, func(ctx context.Context, s *cloudsync.Syncer) error {
				ack, err := s.Push(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Pushed %d bytes (revision %s)", ack.Bytes, ack.Revision)))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Replace the local rules with the remote copy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, func(ctx context.Context, s *cloudsync.Syncer) error {
				report, err := s.Pull(ctx)
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError("Nothing has been pushed yet. Run 'phonocorrect sync push' first.", err)
				}
				if err != nil {
					return err
				}
				printImportReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	})

	return cmd
}

// withSyncer opens the rule store and the configured backend and runs fn.
func withSyncer(cmd *cobra.Command, fn func(context.Context, *cloudsync.Syncer) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	client, closeClient, err := syncClient(ctx, a.cfg.Sync)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeClient(); closeErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("closing sync backend: "+closeErr.Error()))
		}
	}()

	return fn(ctx, cloudsync.NewSyncer(client, a.store, a.cfg.RetryOptions()))
}

func syncClient(ctx context.Context, cfg config.SyncConfig) (cloudsync.Client, func() error, error) {
	switch cfg.Backend {
	case config.SyncBackendRedis:
		return cloudsync.DialRedis(ctx, cloudsync.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			Key:      cfg.Redis.Key,
			DB:       cfg.Redis.DB,
		})
	default:
		client, err := cloudsync.NewFileClient(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	}
}
