package main

import (
	"fmt"
	"os"
	"webup/standby/actions"
	"webup/standby/config"
	"webup/standby/domain"
	"webup/standby/remote"
	"webup/standby/utils"

	"github.com/Songmu/prompter"
	"github.com/fatih/color"
	"github.com/jawher/mow.cli"
)

func main() {

	app := cli.App("standby", "Replicate a Docker Compose mail platform to a cold-standby host")

	app.Version("v version", "Standby 1 (build 2)")

	app.Before = func() {
		ParseAndCheckConfig()
	}

	app.Command("replicate", "Run a full replication pass to the standby host", func(cmd *cli.Cmd) {

		mode := cmd.StringOpt("mode", "", "Override the transfer mode ('archive' or 'sync')")
		yes := cmd.BoolOpt("y yes", false, "Skip the confirmation prompt")

		cmd.Action = func() {

			conf := config.Get()

			if *mode != "" {
				parsed, err := domain.ParseTransferMode(*mode)
				if err != nil {
					fmt.Printf(" %s %s\n", color.RedString("✗"), err)
					cli.Exit(1)
					return
				}
				conf.Mode = parsed
			}

			if !*yes {
				ok := prompter.YN(fmt.Sprintf("Data on '%s' will be overwritten. Continue?", conf.Target.Host), false)
				if !ok {
					return
				}
			}

			report, err := actions.ReplicateActionHandler(conf, domain.LocalRunner{})
			if err != nil {
				fmt.Printf("\n %s %s\n", color.RedString("✗"), err)
				cli.Exit(1)
				return
			}

			fmt.Printf("\n%d volume(s) replicated to '%s'.\n", len(report.Transferred), conf.Target.Host)
			if report.Degraded() {
				for _, warning := range report.Warnings {
					fmt.Printf("  %s %s\n", color.YellowString("⚠"), warning)
				}
				for _, volume := range report.Skipped {
					fmt.Printf("  %s skipped: %s\n", color.YellowString("⚠"), volume)
				}
				fmt.Printf("\n %s Completed with warnings (the standby may be stale)\n", color.YellowString("⚠"))
			} else {
				fmt.Printf("\n %s Done\n", color.GreenString("✓"))
			}
		}
	})

	app.Command("check", "Validate the environment and probe the standby host, without mutating anything", func(cmd *cli.Cmd) {
		cmd.Action = func() {

			conf := config.Get()
			runner := domain.LocalRunner{}
			rexec := remote.Executor{Target: conf.Target, Runner: runner}

			if err := actions.ValidateEnvironment(conf.Target, conf.Mode, runner, rexec); err != nil {
				fmt.Printf(" %s %s\n", color.RedString("✗"), err)
				cli.Exit(1)
				return
			}
			fmt.Printf(" %s environment OK\n", color.GreenString("✓"))

			flavor, err := actions.ProbeCompose(rexec)
			if err != nil {
				fmt.Printf(" %s %s\n", color.RedString("✗"), err)
				cli.Exit(1)
				return
			}
			fmt.Printf(" %s remote orchestration: %s\n", color.GreenString("✓"), flavor)

			localArch, remoteArch, err := actions.ProbeArchitectures(runner, rexec)
			if err != nil {
				fmt.Printf(" %s %s\n", color.RedString("✗"), err)
				cli.Exit(1)
				return
			}
			fmt.Printf(" %s architectures: local %s, remote %s\n", color.GreenString("✓"), localArch, remoteArch)
			if localArch != remoteArch {
				fmt.Printf(" %s architecture-specific volumes will be skipped\n", color.YellowString("⚠"))
			}
		}
	})

	app.Command("volumes", "List the project volumes and how they would be replicated", func(cmd *cli.Cmd) {
		cmd.Action = func() {

			conf := config.Get()

			volumes, err := actions.CollectVolumes(domain.LocalRunner{}, conf.Project, conf.Rules)
			if err != nil {
				fmt.Printf(" %s %s\n", color.RedString("✗"), err)
				cli.Exit(1)
				return
			}

			for _, vol := range volumes {
				kind := vol.Kind.String()
				if vol.Tag != "" {
					kind = fmt.Sprintf("%s (%s)", kind, vol.Tag)
				}
				fmt.Printf("   %s → %s [%s]\n", vol.Name, vol.Mountpoint, kind)
			}

			networks, err := utils.ProjectNetworks(domain.LocalRunner{}, conf.Project)
			if err == nil && len(networks) > 0 {
				fmt.Println("\nProject networks:")
				for _, network := range networks {
					fmt.Printf("   %s\n", network)
				}
			}
		}
	})

	app.Run(os.Args)
}

func ParseAndCheckConfig() {
	err := config.Check()
	if err != nil {
		os.Exit(1)
		return
	}
}
