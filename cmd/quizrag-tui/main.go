package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"quizrag/internal/config"
	"quizrag/internal/extractor"
	"quizrag/internal/retrieval"
	"quizrag/internal/summarizer"
	"quizrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/quizrag/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: quizrag-tui [--config=config.yaml] file1.txt [file2.pdf ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	svc, err := retrieval.NewService(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		log.Fatalf("failed to init retrieval: %v", err)
	}

	ext := extractor.New()
	var corpus string
	for _, path := range inputs {
		text, err := ext.Extract(path)
		if err != nil {
			log.Fatalf("failed to read %s: %v", path, err)
		}
		if n := svc.AddDocument(text, filepath.Base(path)); n == 0 {
			log.Printf("skipped %s: empty or duplicate content", path)
			continue
		}
		corpus += text + "\n\n"
	}

	summary := summarizer.NewFrequencySummarizer().Summarize(corpus, 3)
	m := tui.New(svc, summary)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
