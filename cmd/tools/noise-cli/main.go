package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/noisefield/internal/config"
	"github.com/annel0/noisefield/internal/logging"
	"github.com/annel0/noisefield/internal/noise"
	"github.com/annel0/noisefield/internal/sampler"
	"github.com/annel0/noisefield/internal/shape"
	"github.com/annel0/noisefield/internal/util"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	defaults := cfg.Noise

	var (
		command     = flag.String("cmd", "kinds", "Command: kinds, sample, field, hash")
		kind        = flag.String("kind", defaults.Kind, "Noise kind (see -cmd kinds)")
		dims        = flag.Int("dims", defaults.Dimensions, "Dimensions: 1, 2 or 3")
		tiling      = flag.Bool("tiling", defaults.Tiling, "Use tiling lattice")
		seed        = flag.Int("seed", int(defaults.Settings.Seed), "Seed")
		frequency   = flag.Int("freq", defaults.Settings.Frequency, "Base frequency")
		octaves     = flag.Int("octaves", defaults.Settings.Octaves, "Octaves")
		lacunarity  = flag.Int("lacunarity", defaults.Settings.Lacunarity, "Lacunarity")
		persistence = flag.Float64("persistence", float64(defaults.Settings.Persistence), "Persistence in (0, 1]")
		scale       = flag.Float64("scale", float64(defaults.SpaceTRS().Scale[0]), "Uniform domain scale")
		shapeName   = flag.String("shape", "plane", "Shape for field: "+strings.Join(shape.Names(), ", "))
		resolution  = flag.Int("res", 16, "Field resolution")
		points      = flag.String("points", "", "Points for sample: x,y,z;x,y,z")
		workers     = flag.Int("workers", cfg.Sampler.Workers, "Parallel workers, 0 = GOMAXPROCS")
		normalize   = flag.Bool("normalize", false, "Map values from [-1, 1] to [0, 1]")
		salt        = flag.Uint("salt", 0, "Extra hash byte for -cmd hash, 0 = none")
	)
	flag.Parse()

	// Консоль только для предупреждений, файлы не пишем
	logging.Configure(logging.Options{ConsoleLevel: logging.WARN, FileLevel: logging.ERROR, Console: os.Stderr})

	req := sampler.Request{
		Kind:       *kind,
		Dimensions: *dims,
		Tiling:     *tiling,
		Settings: noise.Settings{
			Seed:        int32(*seed),
			Frequency:   *frequency,
			Octaves:     *octaves,
			Lacunarity:  *lacunarity,
			Persistence: float32(*persistence),
		},
		Domain:     noise.UniformTRS(float32(*scale)),
		Shape:      *shapeName,
		Resolution: *resolution,
	}
	svc := sampler.NewService(sampler.Options{
		Workers: *workers,
		Limits: sampler.Limits{
			MaxResolution: cfg.Sampler.MaxResolution,
			MaxPoints:     cfg.Sampler.MaxPoints,
		},
	})

	ctx := context.Background()
	out := csv.NewWriter(os.Stdout)
	defer out.Flush()

	switch *command {
	case "kinds":
		err = listKinds(out)
	case "sample":
		err = samplePoints(ctx, out, svc, req, *points, *normalize)
	case "field":
		err = writeField(ctx, out, svc, req, *normalize)
	case "hash":
		if *salt > 255 {
			log.Fatalf("❌ -salt must fit in a byte, got %d", *salt)
		}
		err = writeHashes(ctx, out, svc, sampler.HashRequest{
			Seed:       req.Settings.Seed,
			Salt:       uint8(*salt),
			Domain:     req.Domain,
			Shape:      req.Shape,
			Resolution: req.Resolution,
		})
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: kinds, sample, field, hash")
		os.Exit(1)
	}
	if err != nil {
		out.Flush()
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func listKinds(out *csv.Writer) error {
	if err := out.Write([]string{"kind", "tileable"}); err != nil {
		return err
	}
	for _, name := range sampler.KindNames() {
		tileable := false
		if k, err := noise.ParseKind(name); err == nil {
			tileable = k.Tileable()
		}
		if err := out.Write([]string{name, strconv.FormatBool(tileable)}); err != nil {
			return err
		}
	}
	return nil
}

func samplePoints(ctx context.Context, out *csv.Writer, svc *sampler.Service, req sampler.Request, raw string, normalize bool) error {
	pts, err := parsePoints(raw)
	if err != nil {
		return err
	}
	values, err := svc.Sample(ctx, req, pts)
	if err != nil {
		return err
	}
	if err := out.Write([]string{"x", "y", "z", "value"}); err != nil {
		return err
	}
	for i, p := range pts {
		row := []string{formatFloat(p.X()), formatFloat(p.Y()), formatFloat(p.Z()), formatValue(values[i], normalize)}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeField(ctx context.Context, out *csv.Writer, svc *sampler.Service, req sampler.Request, normalize bool) error {
	field, err := svc.Field(ctx, req)
	if err != nil {
		return err
	}
	return writeFieldCSV(out, field, normalize)
}

func writeFieldCSV(out *csv.Writer, field *sampler.Field, normalize bool) error {
	if err := out.Write([]string{"u", "v", "value"}); err != nil {
		return err
	}
	for i, value := range field.Values {
		row := []string{
			strconv.Itoa(i % field.Resolution),
			strconv.Itoa(i / field.Resolution),
			formatValue(value, normalize),
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func writeHashes(ctx context.Context, out *csv.Writer, svc *sampler.Service, req sampler.HashRequest) error {
	field, err := svc.HashField(ctx, req)
	if err != nil {
		return err
	}
	return writeHashCSV(out, field)
}

func writeHashCSV(out *csv.Writer, field *sampler.HashField) error {
	if err := out.Write([]string{"u", "v", "hash", "r", "g", "b", "offset"}); err != nil {
		return err
	}
	for i, h := range field.Hashes {
		c := field.Colors[i]
		row := []string{
			strconv.Itoa(i % field.Resolution),
			strconv.Itoa(i / field.Resolution),
			fmt.Sprintf("%08x", h),
			formatFloat(c.X()),
			formatFloat(c.Y()),
			formatFloat(c.Z()),
			formatFloat(field.Offsets[i]),
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// parsePoints разбирает "x,y,z;x,y,z". Недостающие координаты равны нулю.
func parsePoints(raw string) ([]mgl32.Vec3, error) {
	var pts []mgl32.Vec3
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ",")
		if len(parts) > 3 {
			return nil, fmt.Errorf("point %q has more than 3 coordinates", item)
		}
		var p mgl32.Vec3
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
			if err != nil {
				return nil, fmt.Errorf("point %q: %w", item, err)
			}
			p[i] = float32(v)
		}
		pts = append(pts, p)
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no points given, use -points x,y,z;x,y,z")
	}
	return pts, nil
}

func formatValue(v float32, normalize bool) string {
	if normalize {
		v = util.Normalize01(v)
	}
	return formatFloat(v)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
