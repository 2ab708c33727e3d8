// icosphere - geodesic sphere generator
// Subdivides an icosahedron, computes face and vertex normals, and writes the
// result as an ASCII STL file.
//
// Usage:
//
//	icosphere generate -p 4 -o sphere   - write sphere.stl after 4 passes
//	icosphere info -p 3                 - print mesh statistics
//	icosphere inspect sphere.stl        - check an exported file for cracks
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/taigrr/icosphere/pkg/models"
	"github.com/taigrr/icosphere/pkg/render"
)

var version = "dev"

// weldTolerance is the grid used by inspect to merge facet corners.
const weldTolerance = 1e-4

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// cliOptions holds the raw flag values shared by the subcommands.
type cliOptions struct {
	configPath string
	verbose    bool
	progress   bool
	flags      Config
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{flags: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "icosphere",
		Short: "Geodesic sphere generator",
		Long: `icosphere - Geodesic sphere generator

Builds a sphere by recursively splitting every face of an icosahedron into
four, projecting the new vertices back onto the sphere, and writes the mesh
as an ASCII STL file. Each pass multiplies the triangle count by 4.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLogLevel(log.Verbose)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (flags override it)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every subdivision pass")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a geodesic sphere and export it as STL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runGenerate(cmd.OutOrStdout(), cfg, opts.progress)
		},
	}
	addMeshFlags(generateCmd, opts)
	generateCmd.Flags().StringVarP(&opts.flags.Output, "out", "o", opts.flags.Output, "Output file name (.stl is appended)")
	generateCmd.Flags().StringVar(&opts.flags.Name, "name", opts.flags.Name, "STL solid name")
	generateCmd.Flags().IntVar(&opts.flags.Precision, "precision", opts.flags.Precision, "Significant digits per number")
	generateCmd.Flags().BoolVar(&opts.progress, "progress", false, "Show a progress bar while subdividing")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Display mesh statistics for a pass count",
		Long:  "Generate a sphere in memory and display vertex, edge and triangle counts, bounds, and render buffer sizes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runInfo(cmd.OutOrStdout(), cfg)
		},
	}
	addMeshFlags(infoCmd, opts)

	inspectCmd := &cobra.Command{
		Use:   "inspect <model.stl>",
		Short: "Check an ASCII STL file",
		Long:  "Read an ASCII STL file, weld its facet corners, and report whether it forms a closed sphere.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}

	cmd.AddCommand(generateCmd, infoCmd, inspectCmd)
	return cmd
}

func addMeshFlags(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().IntVarP(&opts.flags.Passes, "passes", "p", opts.flags.Passes, "Number of subdivision passes")
	cmd.Flags().StringVar(&opts.flags.Keying, "keying", opts.flags.Keying, "Midpoint matching: edge or position")
	cmd.Flags().Float64Var(&opts.flags.Tolerance, "tolerance", opts.flags.Tolerance, "Position tolerance for --keying=position")
}

// resolveConfig loads the config file, if any, then applies every flag the
// user set explicitly.
func resolveConfig(cmd *cobra.Command, opts *cliOptions) (Config, error) {
	cfg := DefaultConfig()
	if opts.configPath != "" {
		loaded, err := LoadConfig(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		log.LogVf("Loaded config %s", opts.configPath)
	}

	flags := cmd.Flags()
	if flags.Changed("passes") {
		cfg.Passes = opts.flags.Passes
	}
	if flags.Changed("keying") {
		cfg.Keying = opts.flags.Keying
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = opts.flags.Tolerance
	}
	if flags.Changed("out") {
		cfg.Output = opts.flags.Output
	}
	if flags.Changed("name") {
		cfg.Name = opts.flags.Name
	}
	if flags.Changed("precision") {
		cfg.Precision = opts.flags.Precision
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildSphere creates the configured sphere and runs all passes.
func buildSphere(cfg Config, progress bool) (*models.Icosphere, error) {
	sphere, err := cfg.NewIcosphere()
	if err != nil {
		return nil, err
	}
	if progress && cfg.Passes > 0 {
		bar := progressbar.Default(int64(cfg.Passes), "subdividing")
		defer bar.Close()
		sphere.OnPass = func(int, int) {
			_ = bar.Add(1)
		}
	}

	start := time.Now()
	if err := sphere.IncreaseApproximation(cfg.Passes); err != nil {
		return nil, fmt.Errorf("generate sphere: %w", err)
	}
	log.LogVf("Subdivided %d passes in %v", cfg.Passes, time.Since(start))
	return sphere, nil
}

func runGenerate(w io.Writer, cfg Config, progress bool) error {
	sphere, err := buildSphere(cfg, progress)
	if err != nil {
		return err
	}

	exporter := models.NewSTLExporter(cfg.Name)
	exporter.Precision = cfg.Precision
	if err := exporter.WriteFile(sphere, cfg.Output); err != nil {
		log.Errf("export %s: %v", models.STLPath(cfg.Output), err)
		return err
	}

	log.Infof("Wrote %s (%d vertices, %d triangles)", models.STLPath(cfg.Output), sphere.VertexCount(), sphere.TriangleCount())
	fmt.Fprintf(w, "%s\n", models.STLPath(cfg.Output))
	return nil
}

func runInfo(w io.Writer, cfg Config) error {
	sphere, err := buildSphere(cfg, false)
	if err != nil {
		return err
	}
	buffers, err := render.NewBuffers(sphere)
	if err != nil {
		return err
	}
	minV, maxV := sphere.Bounds()

	fmt.Fprintf(w, "Passes:     %d\n", sphere.Passes())
	fmt.Fprintf(w, "Keying:     %s\n", sphere.Keying)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vertices:   %d\n", sphere.VertexCount())
	fmt.Fprintf(w, "Edges:      %d\n", sphere.EdgeCount())
	fmt.Fprintf(w, "Triangles:  %d\n", sphere.TriangleCount())
	fmt.Fprintf(w, "Euler:      %d\n", sphere.EulerCharacteristic())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Radius:     %.6f (max error %.3g)\n", models.SeedRadius, sphere.MaxRadiusError())
	fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", minV.X, minV.Y, minV.Z)
	fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", maxV.X, maxV.Y, maxV.Z)
	fmt.Fprintf(w, "Buffers:    %.2f KB\n", float64(buffers.SizeBytes())/1024)
	return nil
}

func runInspect(w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	solid, err := models.ReadSTLFile(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	vertices, indexes := solid.Weld(weldTolerance)
	edges := models.EdgeCount(indexes)
	euler := len(vertices) - edges + len(solid.Facets)
	if euler != 2 {
		log.Warnf("%s: Euler characteristic %d, mesh is not a closed sphere", filepath.Base(path), euler)
	}

	fmt.Fprintf(w, "File:       %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Solid:      %s\n", solid.Name)
	fmt.Fprintf(w, "Size:       %.2f KB\n", float64(info.Size())/1024)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Facets:     %d\n", len(solid.Facets))
	fmt.Fprintf(w, "Vertices:   %d (welded)\n", len(vertices))
	fmt.Fprintf(w, "Edges:      %d\n", edges)
	fmt.Fprintf(w, "Euler:      %d\n", euler)
	return nil
}
