package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ning0612/cloudsync/internal/auth"
	"github.com/Ning0612/cloudsync/internal/domain"
)

func (a *app) authCmd() *cobra.Command {
	var logout bool
	cmd := &cobra.Command{
		Use:       "auth <google|microsoft>",
		Short:     "Authorize cloudsync to list your cloud folders",
		Long:      "Runs the OAuth2 authorization for a provider and stores the token.\nOnly needed when remote.mode is direct.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ProviderGoogle), string(domain.ProviderMicrosoft)},
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := domain.Provider(strings.ToLower(args[0]))
			oc, err := a.cfg.Provider(provider)
			if err != nil {
				return err
			}
			authenticator, err := auth.New(provider, oc)
			if err != nil {
				return err
			}

			if logout {
				if err := authenticator.Logout(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed stored %s token\n", provider.DisplayName())
				return nil
			}

			_, err = authenticator.Authenticate(cmd.Context(), a.in, a.out)
			return err
		},
	}
	cmd.Flags().BoolVar(&logout, "logout", false, "Forget the stored token instead")
	return cmd
}
