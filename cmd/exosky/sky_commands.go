package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxygene76/exosky/internal/types"
	"github.com/oxygene76/exosky/pkg/constellation"
	"github.com/oxygene76/exosky/pkg/export"
	"github.com/oxygene76/exosky/pkg/render"
)

var planetsCmd = &cobra.Command{
	Use:   "planets",
	Short: "List the planets in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := loadManager(cmd)
		if err != nil {
			return err
		}

		search, _ := cmd.Flags().GetString("search")
		planets := manager.Catalog().Search(search)

		fmt.Printf("🪐 %d planets\n\n", len(planets))
		fmt.Printf("%-30s %10s %10s %14s\n", "NAME", "RA", "DEC", "DISTANCE (pc)")
		for _, p := range planets {
			fmt.Printf("%-30s %10.2f %10.2f %14.2f\n", p.Name, p.RA, p.Dec, p.Distance)
		}
		return nil
	},
}

var skyCmd = &cobra.Command{
	Use:   "sky <planet>",
	Short: "Compute the night sky seen from a planet",
	Long: `Compute the stars visible from a planet: those within 90 degrees of the
planet's sky position and brighter than the magnitude limit.

Examples:
  exosky sky "Kepler-22 b"
  exosky sky "TRAPPIST-1 e" --limit 10 --format csv --output trappist.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		var write func(io.Writer, *types.SkyView) error
		switch format {
		case "summary":
			write = writeSummary
		case "json":
			write = writeJSON
		case "csv":
			write = writeCSV
		default:
			return fmt.Errorf("unknown format %q (summary|json|csv)", format)
		}

		view, err := computeView(cmd, args[0])
		if err != nil {
			return err
		}

		if output == "" {
			return write(os.Stdout, view)
		}
		return writeToFile(output, func(w io.Writer) error { return write(w, view) })
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <planet>",
	Short: "Render the interactive star charts of a planet to HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		view, err := computeView(cmd, args[0])
		if err != nil {
			return err
		}

		if err := writeToFile(output, func(w io.Writer) error { return render.WriteHTML(w, view) }); err != nil {
			return err
		}

		fmt.Printf("✅ Star charts for %s written to %s\n", view.Planet.Name, output)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <planet>",
	Short: "Export a high resolution PNG of a planet's night sky",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := computeView(cmd, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("📷 Rendering %d stars at %d DPI...\n", len(view.Stars), config.Export.DPI)
		result, err := export.NewExporter(config.Export, logger).Export(view)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Image written to %s (%dx%d, %d bytes, %s)\n",
			result.Path, result.Width, result.Height, result.Bytes, result.Duration.Round(time.Millisecond))
		return nil
	},
}

var constellationCmd = &cobra.Command{
	Use:   "constellation",
	Short: "Custom constellations",
}

var constellationSaveCmd = &cobra.Command{
	Use:   "save <name> [star-id...]",
	Short: "Save a custom constellation",
	Long: `Save a named selection of stars. Constellations are acknowledged but not
stored. With --planet, every star must be visible from that planet.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, starIDs := args[0], args[1:]

		if planet, _ := cmd.Flags().GetString("planet"); planet != "" {
			view, err := computeView(cmd, planet)
			if err != nil {
				return err
			}
			if err := constellation.CheckSelection(view, starIDs); err != nil {
				return err
			}
		}

		ack := constellation.NewService(logger).Save(name, starIDs)
		fmt.Printf("✨ %s\n", ack.Message)
		fmt.Printf("🆔 ID: %s\n", ack.ID)
		fmt.Printf("⭐ Stars: %d\n", ack.StarCount)
		return nil
	},
}

func computeView(cmd *cobra.Command, planet string) (*types.SkyView, error) {
	manager, err := loadManager(cmd)
	if err != nil {
		return nil, err
	}
	return manager.View(context.Background(), planet)
}

func writeSummary(w io.Writer, view *types.SkyView) error {
	p := view.Planet
	fmt.Fprintf(w, "🌌 Night sky from %s\n", p.Name)
	fmt.Fprintf(w, "   Distance: %.2f pc\n", p.Distance)
	fmt.Fprintf(w, "   RA: %.2f°  Dec: %.2f°\n\n", p.RA, p.Dec)

	st := view.Stats
	fmt.Fprintf(w, "⭐ Visible stars: %d (magnitude < %g, within %g°)\n", st.Count, view.MagnitudeLimit, view.Radius)
	if st.Count == 0 {
		return nil
	}
	fmt.Fprintf(w, "   Mean magnitude: %.2f ± %.2f\n", st.Mean, st.StdDev)
	fmt.Fprintf(w, "   Brightest: %.2f  Faintest: %.2f\n", st.Min, st.Max)
	return nil
}

func writeJSON(w io.Writer, view *types.SkyView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func writeCSV(w io.Writer, view *types.SkyView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"SOURCE_ID", "ra", "dec", "phot_g_mean_mag", "separation", "apparent_magnitude"}); err != nil {
		return err
	}
	for _, s := range view.Stars {
		if err := cw.Write([]string{
			s.SourceID,
			formatFloat(s.RA),
			formatFloat(s.Dec),
			formatFloat(s.Magnitude),
			formatFloat(s.Separation),
			formatFloat(s.ApparentMagnitude),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeToFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
