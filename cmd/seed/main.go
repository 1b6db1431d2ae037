package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sngm3741/riskboard/api/internal/config"
	"github.com/sngm3741/riskboard/api/internal/logging"
	"github.com/sngm3741/riskboard/api/internal/server"
	surveyapp "github.com/sngm3741/riskboard/api/internal/survey/application"
	"github.com/sngm3741/riskboard/api/internal/survey/domain"
)

const defaultSeed = 20240601

type seedOptions struct {
	configPath string
	count      int
	randomSeed int64
}

var (
	seedLocations  = []string{"Sendai", "Tokyo", "Nagoya", "Osaka", "Kobe", "Hiroshima", "Fukuoka", "Naha"}
	seedCategories = []string{"flood", "earthquake", "tsunami", "typhoon", "heatwave", "landslide"}
	seedTimelines  = []string{"within 1 month", "within 6 months", "within 1 year", "within 5 years"}
)

func main() {
	if err := newSeedCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "設定されたストアへサンプル回答を投入する",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML 設定ファイルのパス (未指定なら CONFIG_FILE)")
	cmd.Flags().IntVar(&opts.count, "count", 50, "生成する回答数")
	cmd.Flags().Int64Var(&opts.randomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	return cmd
}

func run(ctx context.Context, opts *seedOptions) error {
	if opts.count <= 0 {
		return fmt.Errorf("count must be positive, got %d", opts.count)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := server.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	commands := surveyapp.NewResponseCommandService(store.Repository)
	rng := rand.New(rand.NewSource(opts.randomSeed))

	for i, response := range generateResponses(rng, opts.count) {
		if _, err := commands.Submit(ctx, response); err != nil {
			return fmt.Errorf("seed response %d: %w", i, err)
		}
	}

	logger.Info("サンプル回答を投入しました",
		zap.Int("count", opts.count),
		zap.String("driver", cfg.Store.Driver),
	)
	return nil
}

// generateResponses は乱数から必須 5 項目がそろった回答を count 件作る。
func generateResponses(rng *rand.Rand, count int) []domain.Response {
	responses := make([]domain.Response, 0, count)
	for i := 0; i < count; i++ {
		responses = append(responses, domain.Response{
			RespondentID: fmt.Sprintf("seed-%04d", i+1),
			Location:     seedLocations[rng.Intn(len(seedLocations))],
			Category:     seedCategories[rng.Intn(len(seedCategories))],
			Timeline:     seedTimelines[rng.Intn(len(seedTimelines))],
			Answers:      sampleAnswers(rng),
		})
	}
	return responses
}

type sampleAnswerSet struct {
	Likelihood  int    `json:"likelihood"`
	Impact      int    `json:"impact"`
	Prepared    bool   `json:"prepared"`
	Comment     string `json:"comment"`
	SubmittedAt string `json:"submittedAt"`
}

func sampleAnswers(rng *rand.Rand) json.RawMessage {
	set := sampleAnswerSet{
		Likelihood:  rng.Intn(9) + 1,
		Impact:      rng.Intn(9) + 1,
		Prepared:    rng.Intn(2) == 0,
		Comment:     "seeded response",
		SubmittedAt: time.Unix(1_700_000_000+rng.Int63n(30_000_000), 0).UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(set)
	if err != nil {
		panic(err)
	}
	return raw
}
