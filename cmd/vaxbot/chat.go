package main

import (
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/cli"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/console"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a script in the terminal",
	Long: `Runs a script against the configured store as a local user.
Type /close to time out the session, /restart to start over and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		name, _ := cmd.Flags().GetString("script")
		app, err := rt.App(name)
		if err != nil {
			return err
		}
		defer app.Close()

		addr, _ := cmd.Flags().GetString("addr")
		plain, _ := cmd.Flags().GetBool("plain")
		opts := []console.Option{
			console.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
			console.WithAddr(addr),
			console.WithMarkdown(!plain),
			console.WithLogger(rt.Logger),
		}
		if ussd, _ := cmd.Flags().GetBool("ussd"); ussd {
			opts = append(opts, console.WithUSSD())
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return console.New(app, opts...).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("script", "s", demo.VaccineScript, "Script to run")
	chatCmd.Flags().String("addr", console.DefaultAddr, "Address to chat from")
	chatCmd.Flags().Bool("ussd", false, "Behave like a USSD session")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering")
}
