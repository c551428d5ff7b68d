package app

import (
	"github.com/spf13/afero"

	"github.com/harakeishi/composeports/internal/file"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/internal/parser"
	"github.com/harakeishi/composeports/internal/resolver"
	"github.com/harakeishi/composeports/internal/scanner"
	"github.com/harakeishi/composeports/pkg/types"
)

// NewServiceContainer は実環境のコンポーネントを組み立てます。
// prompter は対話モードのときだけ必要で、それ以外は nil で構いません。
func NewServiceContainer(cfg *types.AppConfig, fs afero.Fs, prompter resolver.Prompter, log logger.Logger) *ServiceContainer {
	files := file.NewAferoFileManager(fs, log)

	detector := scanner.NewSystemPortDetector(log)
	prober := scanner.NewSystemProber(detector, scanner.NewContainerFinder(cfg.GetDocker(), log))
	validator := scanner.NewPortValidatorImpl(log)
	allocator := scanner.NewRandomPortAllocator(detector, nil, log)

	return &ServiceContainer{
		FileManager:      files,
		BackupManager:    file.NewSuffixBackupManager(files, cfg.GetFile().BackupSuffix, log),
		ComposeLoader:    parser.NewYamlComposeParser(fs, log),
		ComposeDetector:  parser.NewComposeFileDetectorImpl(fs, log),
		ConflictDetector: resolver.NewConflictDetectorImpl(prober, log),
		ConflictResolver: resolver.NewConflictResolverImpl(allocator, detector, validator, prompter, log),
		Applier:          resolver.NewApplier(log),
		PortValidator:    validator,
	}
}
