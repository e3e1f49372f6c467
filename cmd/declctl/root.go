package main

import (
	"errors"
	"fmt"
	"time"

	"declaration-platform/pkg/client"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:4000/api/v1"

type rootOptions struct {
	server      string
	credentials string
	timeout     time.Duration
}

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "declctl",
		Short: "Submit and commit declarations against the declaration API",
		Long: `declctl logs in to the declaration API, keeps the access token in a
local credentials file and sends it with every request.

A 401 from the server means the token is missing, expired or revoked:
run 'declctl login' again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "API base URL")
	root.PersistentFlags().StringVar(&opts.credentials, "credentials", "", "Credentials file (default: <user config dir>/declctl/credentials.yaml)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRoleCmd(opts),
		newWhoamiCmd(opts),
		newDeclareCmd(opts),
		newDeclarationsCmd(opts),
		newAuditCmd(opts),
		newPingCmd(opts),
	)
	return root
}

func (o *rootOptions) client() (*client.Client, error) {
	path := o.credentials
	if path == "" {
		p, err := client.DefaultCredentialsPath()
		if err != nil {
			return nil, fmt.Errorf("locate credentials file: %w", err)
		}
		path = p
	}
	return client.New(o.server, client.NewFileStore(path)), nil
}

// explain turns client sentinels into actionable CLI messages.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrUnauthenticated):
		return errors.New("not logged in or session expired; run 'declctl login --username <name>'")
	case errors.Is(err, client.ErrForbidden):
		return errors.New("your role is not allowed to do that")
	default:
		return err
	}
}
