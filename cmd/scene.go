package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/asset"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := asset.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sceneStats(sc))
	return nil
}

func sceneStats(sc *asset.Scene) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Asset", "Count", "Details"})

	min, max := sc.Bounds()
	table.Append([]string{"Vertices", fmt.Sprintf("%d", sc.VertexCount()), fmt.Sprintf("bounds %v - %v", min, max)})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", sc.TriangleCount()), ""})
	table.Append([]string{"Materials", fmt.Sprintf("%d", len(sc.Materials)), ""})
	table.Append([]string{"Lights", fmt.Sprintf("%d", len(sc.Lights)), ""})
	table.Append([]string{"Diffuse textures", textureLayers(sc.DiffuseTextures), textureDims(sc.DiffuseTextures)})
	table.Append([]string{"Normal textures", textureLayers(sc.NormalTextures), textureDims(sc.NormalTextures)})
	table.SetFooter([]string{"", "Camera", sc.Camera.String()})

	table.Render()
	return buf.String()
}

func textureLayers(data *device.TextureData) string {
	if data == nil {
		return "0"
	}
	return fmt.Sprintf("%d", data.Layers)
}

func textureDims(data *device.TextureData) string {
	if data == nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", data.Width, data.Height)
}
