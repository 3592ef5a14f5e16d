// cmd/ask/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"legal-rag-chatbot/internal/app"
	"legal-rag-chatbot/internal/config"
	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/rag"
)

var (
	maxTokens  int
	searchOnly bool
	jsonMode   bool
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	answer  = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "ask [question]",
	Short:         "Answer one legal question from the case, law and practice corpora",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question must not be blank")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if err := logger.InitLogger(cfg); err != nil {
			return err
		}
		defer logger.Sync()

		ctx := cmd.Context()
		deps, err := app.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer deps.Close()

		if searchOnly {
			return runSearch(ctx, cmd.OutOrStdout(), deps.Pipeline, question)
		}
		return runAsk(ctx, cmd.OutOrStdout(), deps.Pipeline, question)
	},
}

func runAsk(ctx context.Context, w io.Writer, p *rag.Pipeline, question string) error {
	ans, err := p.AnswerQuestion(ctx, question, rag.AskOptions{MaxTokens: maxTokens})
	if err != nil {
		return err
	}
	if jsonMode {
		return writeJSON(w, ans)
	}

	fmt.Fprintln(w, heading("참고 자료"))
	fmt.Fprintln(w, ans.Context)
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("답변"))
	fmt.Fprintln(w, answer(ans.Answer))
	for _, cat := range ans.Degraded {
		fmt.Fprintln(w, warning(fmt.Sprintf("! %s retrieval failed; answered without it", cat)))
	}
	fmt.Fprintf(w, "\nembed %s · retrieve %s · synthesize %s · total %s\n",
		ans.Timings.Embed, ans.Timings.Retrieve, ans.Timings.Synthesize, ans.Timings.Total)
	return nil
}

func runSearch(ctx context.Context, w io.Writer, p *rag.Pipeline, query string) error {
	r, err := p.Search(ctx, query)
	if err != nil {
		return err
	}
	if jsonMode {
		return writeJSON(w, r)
	}

	fmt.Fprintln(w, heading(fmt.Sprintf("판례 %d건", len(r.Cases))))
	for _, d := range r.Cases {
		fmt.Fprintf(w, "  %.4f  %s (%s)\n", d.Score, d.CaseName, d.CaseNo)
	}
	fmt.Fprintln(w, heading(fmt.Sprintf("법령 %d건", len(r.Laws))))
	for _, d := range r.Laws {
		fmt.Fprintf(w, "  %.4f  %s (%s)\n", d.Score, d.LawName, d.PromulgationNo)
	}
	fmt.Fprintln(w, heading(fmt.Sprintf("실무자료 %d건", len(r.Practices))))
	for _, d := range r.Practices {
		fmt.Fprintf(w, "  %.4f  %s / %s\n", d.Score, d.MaterialType, d.Filename)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "answer token budget (0 uses the default)")
	rootCmd.Flags().BoolVar(&searchOnly, "search", false, "only list retrieved documents, skip the language model")
	rootCmd.Flags().BoolVar(&jsonMode, "json", false, "print JSON instead of formatted text")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
