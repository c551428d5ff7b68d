// Package cmd は、composeports のコマンドライン機能を提供します。
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harakeishi/composeports/internal/app"
	"github.com/harakeishi/composeports/internal/config"
	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/report"
	"github.com/harakeishi/composeports/internal/resolver"
	"github.com/harakeishi/composeports/pkg/types"
)

var (
	cfgFile        string
	verbose        bool
	filePath       string
	envFile        string
	portRange      string
	jsonOutput     bool
	warnOnly       bool
	exitOnUsed     bool
	fix            bool
	fixInteractive bool
	backup         bool
)

// rootCmd はルートコマンドを表します。
var rootCmd = &cobra.Command{
	Use:   "composeports",
	Short: "Docker Compose のホストポート使用状況チェックと衝突解決ツール",
	Long: `composeports は Docker Compose ファイルが要求するホストポートを調べ、
すでに使用中のポートとその所有者 (プロセスとコンテナ) を表示します。

--fix または --fix-interactive を指定すると、使用中のポートを空いているポートに変更します。
ポートが変数で指定されている場合は変数ファイル (.env) を、それ以外は Compose ファイルを書き換えます。`,
	Example: `  # ポートの使用状況を確認
  composeports

  # 特定のファイルを指定
  composeports -f custom-compose.yml --env-file prod.env

  # 使用中のポートを自動で変更 (元のファイルはバックアップ)
  composeports --fix --backup

  # ポート範囲を指定して対話的に変更
  composeports --fix-interactive --port-range 9000-9999

  # JSON で出力し、使用中のポートがあっても終了コード 0
  composeports --json --warn-only`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCheck,
}

// Execute はコマンドを実行します。
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// グローバルフラグの定義
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "設定ファイルのパス (デフォルト: $HOME/.composeports.yaml または ./.composeports.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "詳細ログ出力")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "docker-compose.yml", "Docker Composeファイルのパス")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "変数ファイルのパス (未指定の場合、ポートが変数を使っていれば .env を探します)")

	flags := rootCmd.Flags()
	flags.StringVar(&portRange, "port-range", "8000-65535", "新しいポートを探す範囲 (LOW-HIGH)")
	flags.BoolVar(&jsonOutput, "json", false, "結果をJSONで出力")
	flags.BoolVar(&warnOnly, "warn-only", false, "使用中のポートがあっても終了コード 0 で終了")
	flags.BoolVar(&exitOnUsed, "exit-on-used", false, "使用中のポートがあれば終了コード 1 で終了 (--warn-only より優先)")
	flags.BoolVar(&fix, "fix", false, "使用中のポートを空いているポートに自動で変更")
	flags.BoolVar(&fixInteractive, "fix-interactive", false, "使用中のポートごとに新しいポートを尋ねて変更 (--fix より優先)")
	flags.BoolVar(&backup, "backup", false, "書き換える前に <ファイル名>.backup を作成")

	rootCmd.AddCommand(restoreCmd)
}

// runCheck はポートを調べ、指定があれば衝突を解決してレポートを出力します。
func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close(log)

	rangeValue := cfg.Port.Range
	if cmd.Flags().Changed("port-range") {
		if rangeValue, err = parsePortRange(portRange); err != nil {
			return err
		}
	}

	format := report.FormatText
	if jsonOutput {
		format = report.FormatJSON
	}
	presenter, err := report.NewPresenter(format)
	if err != nil {
		return err
	}

	var prompter resolver.Prompter
	if fixInteractive {
		tp := resolver.NewTerminalPrompter(os.Stdin, os.Stderr)
		defer tp.Close()
		if !tp.IsTerminal() {
			log.Warn(ctx, "標準入力が端末ではありません。入力は1行ずつ読み込みます")
		}
		prompter = tp
	}

	application := app.NewChecker(app.NewServiceContainer(cfg, afero.NewOsFs(), prompter, log), log)
	result, err := application.Run(ctx, app.Options{
		ComposeFile:         cfg.File.ComposeFile,
		ComposeFileExplicit: cmd.Flags().Changed("file"),
		EnvFile:             cfg.File.EnvFile,
		DefaultEnvFile:      cfg.File.DefaultEnvFile,
		Fix:                 fix,
		Interactive:         fixInteractive,
		Backup:              backup,
		Range:               rangeValue,
	})
	if err != nil {
		return err
	}

	if err := presenter.Present(cmd.OutOrStdout(), result.Report); err != nil {
		return err
	}

	if result.Blocking(warnOnly, exitOnUsed) {
		return errors.NewPortConflictError(result.Conflicts)
	}
	return nil
}

// setup は設定とロガーを読み込み、ロガーと実行IDをコンテキストに設定します。
// フラグで指定された値は設定ファイルより優先します。
func setup(cmd *cobra.Command) (context.Context, *types.AppConfig, logger.Logger, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := config.NewViperConfigLoader(viper.New())
	cfg, err := loader.Load(ctx, cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}

	if verbose {
		cfg.Log.Level = string(types.LogLevelDebug)
	}
	if cmd.Flags().Changed("file") {
		cfg.File.ComposeFile = filePath
	}
	if cmd.Flags().Changed("env-file") {
		cfg.File.EnvFile = envFile
	}

	log, err := logger.NewStructuredLoggerFactory(os.Stderr).Create(cfg.GetLog())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ロガーの初期化に失敗しました: %w", err)
	}

	ctx = logger.WithRequestID(ctx, uuid.NewString())
	if used := loader.ConfigFileUsed(); used != "" {
		log.Debug(ctx, "設定ファイルを使用中", types.Field{Key: "config", Value: used})
	}
	return ctx, cfg, log, nil
}

// parsePortRange はポート範囲文字列を解析します。
// "LOW-HIGH" のほか、数値1つ "LOW" は LOW-65535 として扱います。
func parsePortRange(portRangeStr string) (types.PortRange, error) {
	value := strings.TrimSpace(portRangeStr)
	if value == "" {
		return types.PortRange{}, errors.NewPortRangeInvalidError(portRangeStr, "空です")
	}

	startStr, endStr, hasEnd := strings.Cut(value, "-")

	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return types.PortRange{}, errors.NewPortRangeInvalidError(portRangeStr, fmt.Sprintf("開始ポートが無効です: %s", startStr))
	}

	end := types.MaxPort
	if hasEnd {
		if end, err = strconv.Atoi(strings.TrimSpace(endStr)); err != nil {
			return types.PortRange{}, errors.NewPortRangeInvalidError(portRangeStr, fmt.Sprintf("終了ポートが無効です: %s", endStr))
		}
	}

	if start < types.MinPort {
		return types.PortRange{}, errors.NewPortRangeInvalidError(portRangeStr, fmt.Sprintf("開始ポートは%d以上で指定してください", types.MinPort))
	}
	if end > types.MaxPort {
		return types.PortRange{}, errors.NewPortRangeInvalidError(portRangeStr, fmt.Sprintf("終了ポートは%d以下で指定してください", types.MaxPort))
	}
	if start >= end {
		return types.PortRange{}, errors.NewPortRangeInvalidError(portRangeStr, fmt.Sprintf("開始ポートが終了ポート以上です: %d >= %d", start, end))
	}

	return types.PortRange{Start: start, End: end}, nil
}
