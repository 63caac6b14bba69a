package cmd

import (
	"github.com/spf13/cobra"
)

const AppName = "angif"

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - streaming GIF decoder for constrained hosts",
	}

	rootCmd.AddCommand(DefineInfoCommand())
	rootCmd.AddCommand(DefineFramesCommand())
	rootCmd.AddCommand(DefineCommentCommand())
	rootCmd.AddCommand(DefineMountCommand())
	rootCmd.AddCommand(DefineFuzzCommand())

	return rootCmd.Execute()
}
