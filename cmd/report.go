package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"agridata-labs/soil-scout/internal/ai"
	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/db"
	"agridata-labs/soil-scout/internal/report"
)

var (
	reportInsights bool
	reportSave     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize and analyze the scraped dataset",
	Long: `Prints record counts, average nutrient levels, per-nutrient distributions
and the low-nitrogen districts from the local database. With --save, the
full analysis (correlations included) is written as a workbook under the
output folder. With --insights and a GEMINI_API_KEY, also asks Gemini for a
short plain-language reading of the numbers.`,
	Run: func(cmd *cobra.Command, args []string) {
		runReport()
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportInsights, "insights", false, "Generate AI insights from the stats (needs GEMINI_API_KEY)")
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "Write the analysis workbook under the output folder")
	rootCmd.AddCommand(reportCmd)
}

func runReport() {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	stats, err := report.Collect(database)
	if err != nil {
		log.Fatalf("Failed to collect stats: %v", err)
	}
	report.Render(os.Stdout, stats)

	records, err := db.GetAllRecords(database)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	analysis := report.Analyze(records)
	report.RenderAnalysis(os.Stdout, analysis)

	if reportSave {
		path, err := report.SaveAnalysisXLSX(appCfg.OutputDir, analysis)
		if err != nil {
			log.Fatalf("Failed to save analysis workbook: %v", err)
		}
		log.Printf("Analysis workbook saved to %s", path)
	}

	if !reportInsights {
		return
	}

	// Insights are best-effort: a missing key or API failure never sinks
	// the report.
	ctx := context.Background()
	aiClient, err := ai.NewClient(ctx)
	if err != nil {
		log.Printf("⚠️ Warning: could not initialize AI (check GEMINI_API_KEY): %v", err)
		return
	}
	defer aiClient.Close()

	insights, err := aiClient.GenerateInsights(ctx, report.TextSummary(stats))
	if err != nil {
		log.Printf("⚠️ Warning: insight generation failed: %v", err)
		return
	}
	fmt.Printf("\n🤖 Insights:\n%s\n", insights)
}
