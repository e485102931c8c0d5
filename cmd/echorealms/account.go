package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/echorealms/internal/account"
	"github.com/pbaille/echorealms/internal/domain"
	"github.com/pbaille/echorealms/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func getAccountClient() (*account.Client, error) {
	return account.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.HTTPTimeout, logger)
}

func getSession() (*account.Session, error) {
	s, err := account.LoadSession(cfg.SessionPath())
	if errors.Is(err, account.ErrNoSession) {
		return nil, fmt.Errorf("not signed in: run 'echorealms signin' first")
	}
	return s, err
}

func checkAvatar(emoji string) error {
	if !domain.ValidAvatar(emoji) {
		return fmt.Errorf("unknown avatar %q: pick one of %s", emoji, strings.Join(domain.AvatarEmojis, " "))
	}
	return nil
}

func signUpCmd() *cobra.Command {
	var email, password, username, avatar string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an EchoRealms account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkAvatar(avatar); err != nil {
				return err
			}
			client, err := getAccountClient()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			if err := client.SignUp(ctx, email, password, username, avatar); err != nil {
				return fmt.Errorf("sign up failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Welcome to EchoRealms! ✨ Check your email to confirm your account.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&avatar, "emoji", domain.DefaultAvatar, "avatar emoji")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("username")
	return cmd
}

func signInCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getAccountClient()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			session, err := client.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
			if err := account.SaveSession(cfg.SessionPath(), session); err != nil {
				return err
			}

			logger.Debug("signed in", zap.String("user_id", session.UserID))
			fmt.Fprintln(cmd.OutOrStdout(), "Welcome back! 🌟")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := account.ClearSession(cfg.SessionPath()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Until next time! 🌙")
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	var (
		username, bio, emoji, privacy string
		genres                        []string
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Long: `Without flags, shows your profile, story count and achievements.
Any of --username, --bio, --emoji, --genre or --privacy updates the profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("emoji") {
				if err := checkAvatar(emoji); err != nil {
					return err
				}
			}
			client, err := getAccountClient()
			if err != nil {
				return err
			}
			session, err := getSession()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()

			profile, err := client.GetProfile(ctx, session)
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("username") || flags.Changed("bio") || flags.Changed("emoji") ||
				flags.Changed("genre") || flags.Changed("privacy") {
				update := account.ProfileUpdate{
					Username:        profile.Username,
					AvatarEmoji:     profile.AvatarEmoji,
					Bio:             profile.Bio,
					PreferredGenres: profile.PreferredGenres,
					PrivacySetting:  profile.PrivacySetting,
				}
				if flags.Changed("username") {
					update.Username = username
				}
				if flags.Changed("bio") {
					update.Bio = bio
				}
				if flags.Changed("emoji") {
					update.AvatarEmoji = emoji
				}
				if flags.Changed("privacy") {
					update.PrivacySetting = privacy
				}
				if flags.Changed("genre") {
					update.PreferredGenres = make([]domain.Genre, len(genres))
					for i, g := range genres {
						update.PreferredGenres[i] = domain.Genre(g)
					}
				}

				if err := client.UpdateProfile(ctx, session, update); err != nil {
					return fmt.Errorf("update failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile updated! ✨")

				if profile, err = client.GetProfile(ctx, session); err != nil {
					return fmt.Errorf("load profile: %w", err)
				}
			}

			// story count and achievements are independent of each other
			count, err := client.CountStories(ctx, session)
			if err != nil {
				logger.Warn("count stories", zap.Error(err))
			}
			achievements, err := client.ListAchievements(ctx, session)
			if err != nil {
				logger.Warn("list achievements", zap.Error(err))
			}

			fmt.Fprint(cmd.OutOrStdout(), render.Profile(profile, count, achievements))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new display name")
	cmd.Flags().StringVar(&bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&emoji, "emoji", "", "new avatar emoji")
	cmd.Flags().StringVar(&privacy, "privacy", "", "privacy setting")
	cmd.Flags().StringSliceVar(&genres, "genre", nil, "preferred genres (repeatable or comma separated)")
	return cmd
}
