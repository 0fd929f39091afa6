package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"certgen/internal/config"
	"certgen/internal/recipients"
	"certgen/internal/render"
)

func main() {
	rowsFile := flag.String("rows", "recipients.csv", "Path to a .csv or .txt file of recipients")
	baseURL := flag.String("base-url", "", "Verification base URL (default VERIFY_BASE_URL)")
	outDir := flag.String("out", "qrcodes", "Output directory")
	flag.Parse()

	config.LoadEnv()
	if *baseURL == "" {
		*baseURL = os.Getenv("VERIFY_BASE_URL")
	}
	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -base-url or VERIFY_BASE_URL must be set")
		os.Exit(1)
	}

	f, err := os.Open(*rowsFile)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	rows, err := recipients.Parse(*rowsFile, f)
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating QR codes for %d recipients...\n", len(rows))
	for i, row := range rows {
		png, err := render.QRCode(*baseURL, row)
		if err != nil {
			fmt.Printf("Error creating QR code for %s: %v\n", row.Name, err)
			continue
		}
		filename := filepath.Join(*outDir, fmt.Sprintf("%02d-%s.png", i+1, row.FileName()))
		if err := os.WriteFile(filename, png, 0644); err != nil {
			fmt.Printf("Error writing %s: %v\n", filename, err)
		}
	}
	fmt.Println("Done.")
}
