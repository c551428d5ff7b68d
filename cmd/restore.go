package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/harakeishi/composeports/internal/app"
	"github.com/harakeishi/composeports/internal/logger"
)

// restoreCmd はrestoreコマンドを表します。
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "--backup で作成したバックアップからファイルを復元",
	Long: `--fix --backup で作成した <ファイル名>.backup を元のファイルに書き戻します。

Composeファイルと変数ファイルのうち、バックアップが存在するものだけを復元します。`,
	Example: `  # docker-compose.yml と .env を復元
  composeports restore

  # ファイルを指定して復元
  composeports restore -f custom-compose.yml --env-file prod.env`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Close(log)

		envPath := cfg.File.EnvFile
		if envPath == "" {
			envPath = cfg.File.DefaultEnvFile
		}

		application := app.NewChecker(app.NewServiceContainer(cfg, afero.NewOsFs(), nil, log), log)
		result, err := application.Restore(ctx, app.RestoreOptions{
			ComposeFile: cfg.File.ComposeFile,
			EnvFile:     envPath,
		})
		if err != nil {
			return err
		}

		for _, path := range result.Restored {
			fmt.Fprintf(cmd.OutOrStdout(), "♻️  %s を復元しました\n", path)
		}
		return nil
	},
}
