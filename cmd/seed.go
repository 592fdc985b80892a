package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/rsms-admin/internal/user"
)

var seedPassword string

// sampleStaff is one account per role for local development.
var sampleStaff = []user.Draft{
	{Username: "drsiti", Email: "siti@rsms.local", FullName: "Dr. Siti Rahma", Role: user.RoleDokter, Specialization: "Cardiology", PhoneNumber: "081234567801"},
	{Username: "drbudi", Email: "budi@rsms.local", FullName: "Dr. Budi Santoso", Role: user.RoleDokter, Specialization: "Anak"},
	{Username: "apt.rina", Email: "rina@rsms.local", FullName: "Rina Apriani", Role: user.RoleApoteker},
	{Username: "kasir1", Email: "kasir1@rsms.local", FullName: "Dewi Lestari", Role: user.RoleKasir},
	{Username: "fo.andi", Email: "andi@rsms.local", FullName: "Andi Pratama", Role: user.RoleFrontOffice},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create sample staff accounts",
	Long:  `Create one sample account per role through the records API. Existing usernames are skipped.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ctx, err := newAdminCLI(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		existing, err := app.store.Cached(ctx)
		if err != nil {
			return app.report(err)
		}
		taken := make(map[string]bool, len(existing))
		for _, u := range existing {
			taken[u.Username] = true
		}

		var failed int
		for _, d := range sampleStaff {
			if taken[d.Username] {
				fmt.Fprintf(app.out, "- %s sudah ada\n", d.Username)
				continue
			}
			d.Password = seedPassword
			if _, err := app.gateway.CreateUser(ctx, d); err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d accounts failed", errReported, failed)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "password for every sample account")
}
