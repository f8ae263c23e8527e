package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or save CLI settings",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective settings",
				Action: configShow,
			},
			{
				Name:   "save",
				Usage:  "Write the effective settings to the config file",
				Action: configSave,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	data, err := config.Marshal(Settings(c))
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func configSave(c *cli.Context) error {
	path := c.String("config")
	if err := config.Save(Settings(c), path); err != nil {
		return err
	}
	_, err := c.App.Writer.Write([]byte("saved " + path + "\n"))
	return err
}
