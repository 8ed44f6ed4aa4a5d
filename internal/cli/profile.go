package cli

import (
	"strings"

	"github.com/jrsteele09/marketplace-client/internal/utils"
	"github.com/jrsteele09/marketplace-client/users"
	"github.com/spf13/cobra"
)

var profileDetailHeader = []string{"ID", "EMAIL", "NAME", "ROLE", "BIO", "SKILLS"}

func profileDetailRow(p users.Profile) []string {
	return append(profileRow(&p), orDash(utils.Value(p.Bio)), orDash(strings.Join(p.Skills, ", ")))
}

func newProfileCmd(app *App) *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		if err := app.enter(cmd.Context(), "/profile"); err != nil {
			return err
		}
		p, err := app.api.MyProfile(cmd.Context())
		if err != nil {
			return app.explain(err)
		}
		return app.printer.print(p, profileDetailHeader, [][]string{profileDetailRow(p)})
	}
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your own profile",
		RunE:  show,
	}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE:  show,
	}

	var (
		bio    string
		skills []string
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change your bio or skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.enter(cmd.Context(), "/profile"); err != nil {
				return err
			}
			var in users.ProfileUpdate
			if cmd.Flags().Changed("bio") {
				in.Bio = utils.Ptr(bio)
			}
			if cmd.Flags().Changed("skills") {
				in.Skills = &skills
			}
			p, err := app.api.UpdateMyProfile(cmd.Context(), in)
			if err != nil {
				return app.explain(err)
			}
			return app.printer.print(p, profileDetailHeader, [][]string{profileDetailRow(p)})
		},
	}
	updateCmd.Flags().StringVar(&bio, "bio", "", "short bio")
	updateCmd.Flags().StringSliceVar(&skills, "skills", nil, "comma separated skills")

	cmd.AddCommand(showCmd, updateCmd)
	return cmd
}
