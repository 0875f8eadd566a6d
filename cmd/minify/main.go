package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

var mediaTypes = map[string]string{
	".css":  "text/css",
	".js":   "application/javascript",
	".svg":  "image/svg+xml",
	".html": "text/html",
}

func main() {
	var (
		srcDir = flag.String("src", "static", "Source asset directory")
		dstDir = flag.String("dst", "dist/static", "Output directory")
	)
	flag.Parse()

	m := newMinifier()
	var minified, copied int
	err := filepath.WalkDir(*srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(*srcDir, path)
		if err != nil {
			return err
		}
		out := filepath.Join(*dstDir, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0755)
		}
		ok, err := minifyFile(m, path, out)
		if err != nil {
			return err
		}
		if ok {
			minified++
		} else {
			copied++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to build assets: %v", err)
	}

	fmt.Printf("Minified %d files, copied %d files: %s -> %s\n", minified, copied, *srcDir, *dstDir)
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFunc("text/html", html.Minify)
	return m
}

// minifyFile writes the minified form of in to out. Files with no known media
// type are copied unchanged and reported with false.
func minifyFile(m *minify.M, in, out string) (bool, error) {
	input, err := os.ReadFile(in)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", in, err)
	}
	mediaType, ok := mediaTypes[strings.ToLower(filepath.Ext(in))]
	if !ok {
		return false, os.WriteFile(out, input, 0644)
	}
	output, err := m.Bytes(mediaType, input)
	if err != nil {
		return false, fmt.Errorf("minify %s: %w", in, err)
	}
	return true, os.WriteFile(out, output, 0644)
}
