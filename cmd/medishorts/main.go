package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/medishorts/internal/handler"
	appI18n "github.com/pavelanni/medishorts/internal/i18n"
	"github.com/pavelanni/medishorts/internal/ingest"
	"github.com/pavelanni/medishorts/internal/llm"
	"github.com/pavelanni/medishorts/internal/publish"
	"github.com/pavelanni/medishorts/internal/store"
	"github.com/pavelanni/medishorts/internal/tts"
	"github.com/pavelanni/medishorts/internal/video"
	"github.com/pavelanni/medishorts/internal/workflow"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "medishorts",
		Short: "Automated short-form medical education videos",
	}

	run := runCmd()
	root.AddCommand(run, previewCmd(), ingestCmd(), generateTopicsCmd(), statsCmd(), authYouTubeCmd(), serveCmd())

	// Make "run" the default when no subcommand is given; the binary is
	// typically invoked bare from cron.
	root.RunE = run.RunE

	// Register run flags on root so bare `medishorts --db ...` still works.
	root.Flags().AddFlagSet(run.Flags())

	return root
}

func addCommonFlags(f *pflag.FlagSet) {
	f.String("db", "medishorts.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Content language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "https://api.mistral.ai/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the lesson generation model")
	f.String("llm-model", "mistral-small-latest", "Model name for lesson generation")
}

func addVideoFlags(f *pflag.FlagSet) {
	f.StringP("output-dir", "o", "videos", "Directory for finished videos")
	f.String("work-dir", "", "Directory for per-run temporary files (default: system temp)")
	f.String("tts-url", "", "OpenAI-compatible API base URL for speech (default: llm-url)")
	f.String("tts-key", "", "API key for speech synthesis (default: llm-key)")
	f.String("tts-voice", "onyx", "Voice for narration")
	f.Float64("tts-speed", 1.0, "Speech speed multiplier")
}

func addPublishFlags(f *pflag.FlagSet) {
	f.String("youtube-credentials", "", "OAuth2 client credentials JSON (enables YouTube upload)")
	f.String("youtube-token", "", "OAuth2 token JSON obtained via the authorization flow")
	f.String("telegram-token", "", "Bot token (enables Telegram posting)")
	f.String("telegram-channel", "", "Channel as @username or numeric chat ID")
	f.Bool("delete-after-upload", false, "Remove the local video file after a successful upload")
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce and distribute one video",
		RunE:  runRun,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	addLLMFlags(f)
	addVideoFlags(f)
	addPublishFlags(f)
	return cmd
}

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Generate a lesson and print it without producing a video",
		RunE:  runPreview,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	addLLMFlags(f)
	f.StringP("topic", "t", "", "Topic to preview (default: next topic in rotation)")
	f.String("subtopic", "", "Subtopic to preview")
	return cmd
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Import a curriculum file of subjects and topics",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func generateTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-topics",
		Short: "Generate and import topics for a subject using the LLM",
		RunE:  runGenerateTopics,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	addLLMFlags(f)
	f.StringP("subject", "s", "", "Subject to generate topics for (required)")
	f.IntP("count", "n", 20, "Number of topic/subtopic pairs to generate")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print database statistics as JSON",
		RunE:  runStats,
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func authYouTubeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth-youtube",
		Short: "Run the one-time YouTube OAuth2 authorization and save the token",
		RunE:  runAuthYouTube,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	f.String("youtube-credentials", "", "OAuth2 client credentials JSON (required)")
	f.String("youtube-token", "youtube_token.json", "Where to write the obtained token")
	_ = cmd.MarkFlagRequired("youtube-credentials")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the operational HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	addCommonFlags(f)
	addLLMFlags(f)
	addVideoFlags(f)
	addPublishFlags(f)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MEDISHORTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("medishorts")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/medishorts")
	v.AddConfigPath("/etc/medishorts")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// buildRunner assembles the full pipeline from configuration: database,
// LLM client, speech, video generator, and whichever publishers are
// configured.
func buildRunner(ctx context.Context, v *viper.Viper) (*workflow.Runner, *store.Store, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)

	synth := tts.NewOpenAI(ttsAPI(v, llmClient),
		tts.WithVoice(v.GetString("tts-voice")),
		tts.WithSpeed(v.GetFloat64("tts-speed")),
	)

	cfg := video.DefaultConfig()
	cfg.OutputDir = v.GetString("output-dir")
	cfg.WorkDir = v.GetString("work-dir")
	gen, err := video.NewGenerator(cfg, synth)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create video generator: %w", err)
	}

	var yt workflow.VideoPublisher
	if creds := v.GetString("youtube-credentials"); creds != "" {
		uploader, err := publish.NewYouTube(ctx, creds, v.GetString("youtube-token"))
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("configure youtube: %w", err)
		}
		yt = uploader
	}

	var tg workflow.MessagePoster
	if token := v.GetString("telegram-token"); token != "" {
		poster, err := publish.NewTelegram(token, v.GetString("telegram-channel"))
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("configure telegram: %w", err)
		}
		if err := poster.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		tg = poster
	}

	runner := workflow.NewRunner(db, llmClient, gen, yt, tg)
	runner.DeleteAfterUpload = v.GetBool("delete-after-upload")
	return runner, db, nil
}

// ttsAPI returns the API client for speech synthesis. A dedicated speech
// endpoint can be configured; otherwise the lesson generation client is
// reused.
func ttsAPI(v *viper.Viper, llmClient *llm.Client) *openai.Client {
	key := v.GetString("tts-key")
	baseURL := v.GetString("tts-url")
	if key == "" && baseURL == "" {
		return llmClient.API()
	}
	if key == "" {
		key = v.GetString("llm-key")
	}
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func runRun(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	runner, db, err := buildRunner(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := runner.RunDaily(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runPreview(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	topic := v.GetString("topic")
	subtopic := v.GetString("subtopic")
	if topic == "" {
		db, err := store.New(v.GetString("db"))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		subjectID, err := db.NextSubjectForRotation()
		if err != nil {
			return fmt.Errorf("subject rotation: %w", err)
		}
		if subjectID == 0 {
			return fmt.Errorf("no subjects in database; import topics first or pass --topic")
		}
		next, err := db.NextUnusedTopic(subjectID)
		if err != nil {
			return fmt.Errorf("next topic: %w", err)
		}
		if next == nil {
			return fmt.Errorf("no unused topics for the next subject; pass --topic")
		}
		topic = next.Name
		subtopic = next.Subtopic
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	lesson, err := llmClient.GenerateLesson(ctx, topic, subtopic)
	if err != nil {
		return fmt.Errorf("generate lesson: %w", err)
	}

	fmt.Println(llm.FormatDisplay(lesson, topic, subtopic))
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	imp := ingest.New(db)
	summary, err := imp.ImportFile(args[0])
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	if summary.Skipped {
		slog.Info("file unchanged since last import, skipping", "path", args[0])
	} else {
		slog.Info("import complete",
			"path", args[0], "subjects", summary.Subjects, "topics", summary.Imported)
		for subject, n := range summary.PerSubject {
			slog.Info("imported subject", "subject", subject, "topics", n)
		}
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	available, err := imp.Available(ctx)
	if err != nil {
		return err
	}
	fmt.Println(available)
	return nil
}

func runGenerateTopics(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)

	subject := v.GetString("subject")
	topics, err := llmClient.GenerateTopics(ctx, subject, v.GetInt("count"))
	if err != nil {
		return fmt.Errorf("generate topics: %w", err)
	}

	imported, err := ingest.New(db).ImportGenerated(subject, topics)
	if err != nil {
		return fmt.Errorf("import generated topics: %w", err)
	}
	slog.Info("generated topics imported",
		"subject", subject, "generated", len(topics), "imported", imported)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	stats, err := db.Statistics()
	if err != nil {
		return fmt.Errorf("collect statistics: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runAuthYouTube(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	flow, err := publish.NewAuthFlow(v.GetString("youtube-credentials"))
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in a browser and authorize the application:")
	fmt.Println()
	fmt.Println(flow.URL())
	fmt.Println()
	fmt.Print("Paste the authorization code here: ")
	var code string
	if _, err := fmt.Scanln(&code); err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}

	tokenFile := v.GetString("youtube-token")
	if err := flow.Exchange(cmd.Context(), code, tokenFile); err != nil {
		return err
	}
	slog.Info("authorization complete, token saved", "path", tokenFile)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	runner, db, err := buildRunner(cmd.Context(), v)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db, runner)

	lang := v.GetString("lang")
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"output_dir", v.GetString("output-dir"),
	)
	return http.ListenAndServe(addr, r)
}
