package cmd

import (
	"bytes"
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List available compute devices.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	devices, err := device.SelectDevices(device.AllDevices, "")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "Name", "Type", "Workers", "API level", "Supported"})
	for idx, dev := range devices {
		table.Append([]string{
			fmt.Sprintf("%02d", idx),
			dev.Name,
			dev.Type.String(),
			fmt.Sprintf("%d", dev.Workers),
			fmt.Sprintf("%d", dev.Features.APIVersion),
			fmt.Sprintf("%t", tracer.IsSupported(dev)),
		})
	}
	table.Render()

	logger.Noticef("system provides %d compute device(s):\n%s", len(devices), buf.String())
	return nil
}
