package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create missing collections and fields on the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.adminServices().Setup.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready on %s store\n", env.conf.Store)
		return nil
	},
}

var seedPermissionsCmd = &cobra.Command{
	Use:   "seed-permissions",
	Short: "Insert the permission catalog, skipping existing slugs",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.adminServices().Setup.SeedPermissions(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, slug := range res.Created {
			fmt.Fprintf(out, "  + %s\n", slug)
		}
		fmt.Fprintf(out, "%d created, %d already present\n", len(res.Created), len(res.Skipped))
		return nil
	},
}

var checkPermissionsCmd = &cobra.Command{
	Use:   "check-permissions",
	Short: "List roles with their permission slugs",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.adminServices().Setup.CheckPermissions(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tSLUG\tACTIVE\tPERMISSIONS")
		for _, r := range report {
			perms := strings.Join(r.Permissions, ", ")
			if perms == "" {
				perms = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", r.Role, r.Slug, r.Active, perms)
		}
		return w.Flush()
	},
}

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create the first super admin when the store has no users",
	Long: `Seeds the permission catalog, creates the super_admin system role with
every permission and a verified user holding it. Refuses to run when any
user already exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		first, _ := cmd.Flags().GetString("first-name")
		last, _ := cmd.Flags().GetString("last-name")

		user, err := env.adminServices().Setup.BootstrapAdmin(cmd.Context(), email, password, first, last)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "super admin %s created (id %s)\n", user.Email, user.ID)
		return nil
	},
}
