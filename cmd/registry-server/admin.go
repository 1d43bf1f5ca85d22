package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmh/registry/internal/domain/announcement"
	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/internal/domain/registry"
	"github.com/tmh/registry/internal/platform/cache"
	"github.com/tmh/registry/internal/platform/validate"
)

// withServices runs fn against services backed by the configured
// database. Operator commands skip the cache; announcement writes still
// invalidate it when REDIS_URL is set.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svcs *services) error) error {
	ctx := cmd.Context()
	cfg, pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	var provider cache.Provider = cache.NoopProvider{}
	if cfg.RedisURL != "" {
		redisProvider, err := cache.NewRedisProvider(ctx, cfg.RedisURL, cachePrefix)
		if err != nil {
			return err
		}
		defer redisProvider.Close()
		provider = redisProvider
	}

	logger := newLogger(cfg.Env)
	return fn(logger.WithContext(ctx), newServices(pool, provider, cfg.AnnouncementCacheTTL))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func hospitalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hospital",
		Short: "Manage hospitals",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a hospital",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := registry.CreateHospitalInput{}
			in.Name, _ = cmd.Flags().GetString("name")
			in.Address, _ = cmd.Flags().GetString("address")
			if err := validate.New().Validate(&in); err != nil {
				return fmt.Errorf("%v", validate.Messages(err))
			}
			return withServices(cmd, func(ctx context.Context, svcs *services) error {
				h, err := svcs.registry.CreateHospital(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), h)
			})
		},
	}
	createCmd.Flags().String("name", "", "Hospital name")
	createCmd.Flags().String("address", "", "Hospital address")
	_ = createCmd.MarkFlagRequired("name")
	cmd.AddCommand(createCmd)
	return cmd
}

func announcementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "announcement",
		Short: "Manage announcements",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Publish an announcement",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := announcementInput(cmd)
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, svcs *services) error {
				a, err := svcs.announcements.Create(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	createCmd.Flags().String("text", "", "Announcement text")
	createCmd.Flags().String("from", "", "Display from (RFC 3339)")
	createCmd.Flags().String("until", "", "Display until (RFC 3339)")
	_ = createCmd.MarkFlagRequired("text")
	cmd.AddCommand(createCmd)
	return cmd
}

func announcementInput(cmd *cobra.Command) (announcement.CreateInput, error) {
	var in announcement.CreateInput
	in.Text, _ = cmd.Flags().GetString("text")
	for flag, dst := range map[string]**time.Time{"from": &in.DisplayFrom, "until": &in.DisplayUntil} {
		raw, _ := cmd.Flags().GetString(flag)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, fmt.Errorf("--%s: %w", flag, err)
		}
		*dst = &t
	}
	return in, nil
}

func personnelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personnel",
		Short: "Manage medical personnel accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with a medical personnel profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := personnel.CreateUserInput{}
			in.Subject, _ = cmd.Flags().GetString("subject")
			in.Username, _ = cmd.Flags().GetString("username")
			in.Email, _ = cmd.Flags().GetString("email")
			in.FirstName, _ = cmd.Flags().GetString("first-name")
			in.LastName, _ = cmd.Flags().GetString("last-name")
			in.Level, _ = cmd.Flags().GetString("level")
			if cmd.Flags().Changed("staff") {
				staff, _ := cmd.Flags().GetBool("staff")
				in.IsStaff = &staff
			}
			if err := validate.New().Validate(&in); err != nil {
				return fmt.Errorf("%v", validate.Messages(err))
			}
			return withServices(cmd, func(ctx context.Context, svcs *services) error {
				mp, err := svcs.personnel.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), personnel.NewSummary(mp))
			})
		},
	}
	createCmd.Flags().String("subject", "", "Identity provider subject (defaults to the username)")
	createCmd.Flags().String("username", "", "Username")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("first-name", "", "First name")
	createCmd.Flags().String("last-name", "", "Last name")
	createCmd.Flags().String("level", "", "Surgeon, Lead Surgeon or National Lead")
	createCmd.Flags().Bool("staff", true, "Grant staff access")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("email")
	cmd.AddCommand(createCmd)
	return cmd
}
