package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tasnim.dev/nat-convert/cmd"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "nat-convert",
		Short:        "Migrate VPC NAT instances to a managed NAT gateway",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.NewConvertCmd())
	rootCmd.AddCommand(cmd.NewPlanCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
