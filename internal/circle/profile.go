package circle

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wisdomcircle/circled/internal/models"
)

func newProfilesCmd() *cobra.Command {
	var q models.ProfileQuery
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Browse the member directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := anonymousClient(cmd)
			entries, err := c.Directory(cmd.Context(), q)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tCITY\tAGE\tMENTIONS")
			for _, e := range entries {
				age := ""
				if e.Age > 0 {
					age = fmt.Sprintf("%d", e.Age)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.Username, e.City, age, e.MentionCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&q.City, "city", "", "filter by city")
	cmd.Flags().StringVar(&q.Gender, "gender", "", "filter by gender")
	cmd.Flags().IntVar(&q.MinAge, "min-age", 0, "minimum age")
	cmd.Flags().IntVar(&q.MaxAge, "max-age", 0, "maximum age")
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your own profile",
	}
	cmd.AddCommand(newProfileShowCmd(), newProfileSetCmd())
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := authedClient(cmd)
			if err != nil {
				return err
			}
			p, err := c.Profile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Username:     %s\n", p.Username)
			fmt.Fprintf(out, "Display name: %s\n", p.DisplayName)
			fmt.Fprintf(out, "Age:          %d\n", p.Age)
			fmt.Fprintf(out, "Gender:       %s\n", p.Gender)
			fmt.Fprintf(out, "City:         %s\n", p.City)
			fmt.Fprintf(out, "Bio:          %s\n", p.Bio)
			fmt.Fprintf(out, "Image:        %s\n", p.ImageURL)
			return nil
		},
	}
}

func newProfileSetCmd() *cobra.Command {
	var upd models.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := authedClient(cmd)
			if err != nil {
				return err
			}

			// Unset flags keep their stored values.
			current, err := c.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("display-name") {
				upd.DisplayName = current.DisplayName
			}
			if !cmd.Flags().Changed("age") {
				upd.Age = current.Age
			}
			if !cmd.Flags().Changed("gender") {
				upd.Gender = current.Gender
			}
			if !cmd.Flags().Changed("city") {
				upd.City = current.City
			}
			if !cmd.Flags().Changed("bio") {
				upd.Bio = current.Bio
			}
			upd.ImageURL = current.ImageURL

			p, err := c.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile for %s updated.\n", p.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&upd.DisplayName, "display-name", "", "display name")
	cmd.Flags().IntVar(&upd.Age, "age", 0, "age")
	cmd.Flags().StringVar(&upd.Gender, "gender", "", "gender")
	cmd.Flags().StringVar(&upd.City, "city", "", "city")
	cmd.Flags().StringVar(&upd.Bio, "bio", "", "bio")
	return cmd
}
