package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/salescribe/callscribe/internal/audio"
	"github.com/salescribe/callscribe/internal/diarize"
	"github.com/salescribe/callscribe/internal/embed"
	"github.com/salescribe/callscribe/internal/pipeline"
	"github.com/salescribe/callscribe/internal/refcache"
	"github.com/salescribe/callscribe/internal/transcriber"
)

type Config struct {
	Services struct {
		DiarizationURL string `yaml:"diarization_url"`
		EmbeddingURL   string `yaml:"embedding_url"`
	} `yaml:"services"`
	Transcription struct {
		Provider   string `yaml:"provider"`
		WSURL      string `yaml:"ws_url"`
		HTTPURL    string `yaml:"http_url"`
		SampleRate int    `yaml:"sample_rate"`
	} `yaml:"transcription"`
	Pipeline struct {
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		MinTurnDuration     float64 `yaml:"min_turn_duration"`
		TargetLabel         string  `yaml:"target_label"`
	} `yaml:"pipeline"`
	Redis struct {
		Addr      string `yaml:"addr"`
		KeyPrefix string `yaml:"key_prefix"`
		TTLHours  int    `yaml:"ttl_hours"`
	} `yaml:"redis"`
	Output struct {
		Dir             string `yaml:"dir"`
		SaveTranscripts bool   `yaml:"save_transcripts"`
	} `yaml:"output"`
}

func main() {
	var configFile, samplePath, userID, outDir string
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.StringVar(&samplePath, "sample", "", "Reference voice sample of the target speaker")
	flag.StringVar(&userID, "user", "", "User ID for reference embedding caching")
	flag.StringVar(&outDir, "out", "", "Override output directory")
	flag.Parse()

	if flag.NArg() == 0 || samplePath == "" {
		log.Fatal("usage: callscribe -sample <voice-sample> [-config config.yaml] <recording> [more chunks...]")
	}

	config := &Config{}
	if err := loadConfig(configFile, config); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if outDir != "" {
		config.Output.Dir = outDir
	}

	// Partial uploads arrive as separate chunks; stitch them first.
	recordingPath := flag.Arg(0)
	if flag.NArg() > 1 {
		merged, err := mergeChunks(flag.Args())
		if err != nil {
			log.Fatalf("Failed to merge audio chunks: %v", err)
		}
		defer os.Remove(merged)
		recordingPath = merged
	}

	runner, err := buildRunner(config)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, recordingPath, samplePath, userID)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	log.Printf("Run %s produced %d records\n%s", result.RunID, len(result.Records), result.Metrics.Summary())

	if config.Output.SaveTranscripts && config.Output.Dir != "" {
		path, err := saveTranscript(config.Output.Dir, result)
		if err != nil {
			log.Fatalf("Failed to save transcript: %v", err)
		}
		log.Printf("Transcript saved to %s", path)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Records); err != nil {
		log.Fatalf("Failed to write records: %v", err)
	}
}

func loadConfig(filename string, config *Config) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return err
	}

	if config.Transcription.Provider == "" {
		config.Transcription.Provider = transcriber.ProviderWhisperWS
	}
	if config.Transcription.SampleRate == 0 {
		config.Transcription.SampleRate = 16000
	}
	defaults := pipeline.DefaultConfig()
	if config.Pipeline.SimilarityThreshold == 0 {
		config.Pipeline.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if config.Pipeline.MinTurnDuration == 0 {
		config.Pipeline.MinTurnDuration = defaults.MinTurnDuration
	}
	if config.Pipeline.TargetLabel == "" {
		config.Pipeline.TargetLabel = defaults.TargetLabel
	}
	if config.Redis.KeyPrefix == "" {
		config.Redis.KeyPrefix = "callscribe:ref:"
	}
	if config.Redis.TTLHours == 0 {
		config.Redis.TTLHours = 24
	}
	return nil
}

func buildRunner(config *Config) (*pipeline.Runner, error) {
	var t transcriber.Transcriber
	switch config.Transcription.Provider {
	case transcriber.ProviderWhisperWS:
		t = transcriber.NewWhisperWS(config.Transcription.WSURL, config.Transcription.SampleRate)
	case transcriber.ProviderWhisperHTTP:
		t = transcriber.NewWhisperHTTP(config.Transcription.HTTPURL)
	default:
		return nil, fmt.Errorf("unknown transcription provider: %s", config.Transcription.Provider)
	}

	var cache *refcache.Cache
	if config.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.Redis.Addr})
		cache = refcache.New(client, config.Redis.KeyPrefix, time.Duration(config.Redis.TTLHours)*time.Hour)
	}

	return &pipeline.Runner{
		Diarizer:    diarize.NewClient(config.Services.DiarizationURL),
		Embedder:    embed.NewClient(config.Services.EmbeddingURL),
		Transcriber: t,
		RefCache:    cache,
		Provider:    config.Transcription.Provider,
		Config: pipeline.Config{
			SimilarityThreshold: config.Pipeline.SimilarityThreshold,
			MinTurnDuration:     config.Pipeline.MinTurnDuration,
			TargetLabel:         config.Pipeline.TargetLabel,
		},
	}, nil
}

func mergeChunks(paths []string) (string, error) {
	tmp, err := os.CreateTemp("", "callscribe-merged-*.wav")
	if err != nil {
		return "", err
	}
	tmp.Close()
	if err := audio.Merge(paths, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func saveTranscript(dir string, result *pipeline.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.json",
		time.Now().Format("20060102_150405"),
		result.RunID[:8],
	))

	data, err := json.MarshalIndent(result.Records, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}
