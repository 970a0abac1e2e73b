package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/pieconv/pie"
)

func defaultOutputFile(input string) string {
	ext := strings.ToLower(filepath.Ext(input))
	base := input[0 : len(input)-len(ext)]
	if ext == ".pie" {
		return base + ".glb"
	} else if ext == ".glb" || ext == ".gltf" {
		return base + ".pie"
	}
	return input + ".pie"
}

func printCaps() {
	p2, _ := pie.MaxCaps(2)
	p3, _ := pie.MaxCaps(3)
	fmt.Println("bit  directive    pie2 pie3")
	for _, d := range pie.Directives() {
		fmt.Printf("%3d  %-12s %4v %4v  %s\n", int(d), d.Name(), p2.Test(d), p3.Test(d), d.Description())
	}
}

func printInfo(doc pie.Document) {
	fmt.Println("Version:", doc.Version())
	fmt.Println("Caps:", doc.Caps(), doc.Caps().Directives())
	fmt.Println("Levels:", doc.NumLevels())
	for i := 0; i < doc.NumLevels(); i++ {
		l := doc.Level(i)
		fmt.Printf("  level%d: points=%d normals=%d polygons=%d connectors=%d\n",
			i+1, l.NumPoints(), l.NumNormals(), l.NumPolygons(), l.NumConnectors())
	}
}

func animation(input, output string, dumpFlag bool) error {
	ani, err := pie.LoadAnimation(input)
	if err != nil {
		return err
	}
	log.Printf("Frames: %d Time: %d Cycles: %d", ani.NumFrames(), ani.Time, ani.Cycles)
	if dumpFlag {
		dump(ani)
	}
	if output == "" {
		return nil
	}
	w, err := os.Create(output)
	if err != nil {
		return err
	}
	defer w.Close()
	return pie.WriteAnimation(w, ani)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.pie [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	configFile := flag.String("config", "", "profile (.yaml)")
	version := flag.Int("to", 0, "output PIE version (2 or 3). 0: keep")
	capsFlag := flag.String("caps", "", "directives to write as a bit string (e.g. 11100011)")
	scale := flag.Float64("scale", 0, "glTF units per PIE unit. 0: 1/128")
	frame := flag.Int("frame", 0, "texture animation frame exported to glTF")
	textureDir := flag.String("texdir", "", "texture directory. default: input directory")
	embed := flag.Bool("embed", false, "embed textures into glTF")
	infoFlag := flag.Bool("info", false, "print model summary")
	dumpFlag := flag.Bool("dump", false, "dump parsed model")
	capsHelp := flag.Bool("caps-help", false, "list directives")
	flag.Parse()

	if *capsHelp {
		printCaps()
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	output := flag.Arg(1)

	profile := &Profile{}
	if *configFile != "" {
		var err error
		if profile, err = loadProfile(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "to":
			profile.Version = *version
		case "caps":
			profile.Caps = *capsFlag
		case "scale":
			profile.Scale = float32(*scale)
		case "texdir":
			profile.TextureDir = *textureDir
		case "embed":
			profile.EmbedTextures = *embed
		}
	})
	if profile.TextureDir == "" {
		profile.TextureDir = filepath.Dir(input)
	}

	if strings.ToLower(filepath.Ext(input)) == ".ani" {
		if err := animation(input, output, *dumpFlag); err != nil {
			log.Fatal(err)
		}
		return
	}

	opt := profile.gltfOption()
	opt.Frame = *frame
	doc, err := loadDocument(input, opt, profile.Version)
	if err != nil {
		log.Fatal(err)
	}
	if profile.Version != 0 && doc.Version() != profile.Version {
		if doc, err = pie.ConvertTo(doc, profile.Version); err != nil {
			log.Fatal(err)
		}
	}

	if *infoFlag || *dumpFlag {
		if *infoFlag {
			printInfo(doc)
		}
		if *dumpFlag {
			dump(doc)
		}
		if output == "" {
			return
		}
	}

	caps, err := profile.caps(doc)
	if err != nil {
		log.Fatal(err)
	}
	if output == "" {
		output = defaultOutputFile(input)
	}
	log.Print("out: ", output)
	if err = saveDocument(doc, output, opt, caps); err != nil {
		log.Fatal(err)
	}
}
