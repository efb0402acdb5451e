package cli

import (
	"fmt"

	"leadflow_backend/migrations"
	"leadflow_backend/platform/db"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Run:   runMigrate,
	}

	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	e, err := openEnv(cmd.Context())
	if err != nil {
		exitErr("startup", err)
	}
	defer e.Close()

	if err := db.RunMigrations(cmd.Context(), e.pool, migrations.FS); err != nil {
		exitErr("migrate", err)
	}
	fmt.Println("migrations applied")
}
