package main

import (
	"fmt"
	"os"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "raytrace"
	app.Usage = "render triangle scenes using ray tracing and progressive path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available compute devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "info",
			Usage: "display scene information",
			Description: `
Parse a scene definition from a wavefront obj file together with its material
libraries and textures and print a summary of the loaded assets.`,
			ArgsUsage: "scene_file.obj",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "render",
			Usage: "render a still frame",
			Description: `
Render a single frame of a wavefront obj scene. Direct mode renders one frame
with optional shadows, reflections and refractions. Path tracing modes
accumulate the requested number of frames.`,
			ArgsUsage: "scene_file.obj",
			Flags:     cmd.RenderFlags,
			Action:    cmd.RenderFrame,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
