package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"declaration-platform/internal/auth"
	"declaration-platform/pkg/client"

	"github.com/spf13/cobra"
)

func (o *rootOptions) run(fn func(ctx context.Context, c *client.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		c, err := o.client()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
		defer cancel()
		return explain(fn(ctx, c))
	}
}

func newLoginCmd(o *rootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain an access token and store it locally",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to log in as")
	_ = cmd.MarkFlagRequired("username")

	cmd.RunE = o.run(func(ctx context.Context, c *client.Client) error {
		tok, err := c.Login(ctx, username)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", username, client.RoleFromToken(tok))
		return nil
	})
	return cmd
}

func newLogoutCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token and forget it",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = o.run(func(ctx context.Context, c *client.Client) error {
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	})
	return cmd
}

func newRoleCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Show the role recorded in the stored token (not verified)",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = o.run(func(_ context.Context, c *client.Client) error {
		role, err := c.Role()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), role)
		return nil
	})
	return cmd
}

func newWhoamiCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Ask the server who the stored token belongs to",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = o.run(func(ctx context.Context, c *client.Client) error {
		me, err := c.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", me.Username, me.Role)
		return nil
	})
	return cmd
}

func newDeclareCmd(o *rootOptions) *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "declare <text>",
		Short: "Submit a declaration and print its plan",
		Long: `Submit a declaration and print the derived plan.

With --commit the plan is committed right away. The flag is only honoured
when the stored token carries the Admin role; the server checks again.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "Commit the plan after submitting (Admin only)")

	cmd.RunE = func(cc *cobra.Command, args []string) error {
		text := args[0]
		return o.run(func(ctx context.Context, c *client.Client) error {
			if commit {
				role, err := c.Role()
				if err != nil {
					return err
				}
				if role != auth.RoleAdmin {
					return errors.New("--commit is only available to Admin")
				}
			}

			sub, err := c.SubmitDeclaration(ctx, text)
			if err != nil {
				return err
			}
			out := cc.OutOrStdout()
			fmt.Fprintf(out, "Declaration %s\n%s\n", sub.ID, sub.Plan)

			if !commit {
				return nil
			}
			if err := c.CommitDeclaration(ctx, sub.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Committed")
			return nil
		})(cc, args)
	}
	return cmd
}

func newDeclarationsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "declarations",
		Short: "List recent declarations",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = o.run(func(ctx context.Context, c *client.Client) error {
		list, err := c.ListDeclarations(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tBY\tPLAN")
		for _, d := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Status, d.SubmittedBy, d.Plan)
		}
		return tw.Flush()
	})
	return cmd
}

func newAuditCmd(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of events (server default when 0)")

	cmd.RunE = o.run(func(ctx context.Context, c *client.Client) error {
		evs, err := c.ListAudit(ctx, limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTYPE\tMESSAGE")
		for _, e := range evs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Type, e.Message)
		}
		return tw.Flush()
	})
	return cmd
}

func newPingCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = o.run(func(ctx context.Context, c *client.Client) error {
		if err := c.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "pong")
		return nil
	})
	return cmd
}
