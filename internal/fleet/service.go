package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/internal/manifest"
	"github.com/fulutas/stackmit-app/internal/registry"
	"github.com/fulutas/stackmit-app/internal/repos/dependencies"
	"github.com/fulutas/stackmit-app/internal/repos/shared"
	"github.com/fulutas/stackmit-app/internal/tabular"
	"github.com/fulutas/stackmit-app/internal/vcs"
)

const (
	detachedHeadMessageConstant            = "detached HEAD"
	upToDateMessageConstant                = "up to date"
	incomingCommitsMessageTemplateConstant = "%d incoming commit(s) on %s/%s"
	pullCompletedMessageConstant           = "pulled"
	commitPushedMessageTemplateConstant    = "committed and pushed to %s"
	stepFailureMessageTemplateConstant     = "%s failed: %s"
	fetchStepNameConstant                  = "fetch"
	branchStepNameConstant                 = "branch lookup"
	countStepNameConstant                  = "incoming count"
	pullStepNameConstant                   = "pull"
	stageStepNameConstant                  = "stage"
	commitStepNameConstant                 = "commit"
	pushStepNameConstant                   = "push"
	vcsHeadReferenceConstant               = "HEAD"
)

var errDetachedHead = errors.New(detachedHeadMessageConstant)

// stepFailure records which step of a multi-step unit failed.
type stepFailure struct {
	step  string
	cause error
}

func (failure stepFailure) Error() string {
	return fmt.Sprintf(stepFailureMessageTemplateConstant, failure.step, vcs.FailureDetail(failure.cause))
}

func (failure stepFailure) Unwrap() error {
	return failure.cause
}

// describeFailure renders a unit failure as the message shown to the operator.
func describeFailure(failure error) string {
	var step stepFailure
	if errors.As(failure, &step) {
		return step.Error()
	}
	return vcs.FailureDetail(failure)
}

// VersionLookup resolves the latest published version of a package.
type VersionLookup interface {
	LatestVersion(executionContext context.Context, packageName string) (string, bool)
}

// ManifestReader loads a directory's dependency manifest.
type ManifestReader interface {
	Read(directory string) (manifest.Manifest, bool, error)
}

// DocumentFactory creates tabular sinks.
type DocumentFactory interface {
	NewDocument(format tabular.Format, sheetName string, header []string) (tabular.Document, error)
}

// Dependencies are the collaborators of a Service. Only Repository is required.
type Dependencies struct {
	Logger      *zap.Logger
	Repository  RepositoryClient
	FileSystem  shared.FileSystem
	Registry    VersionLookup
	Manifests   ManifestReader
	Documents   DocumentFactory
	Observer    BatchObserver
	Clock       shared.Clock
	Concurrency int
}

// Service runs fleet operations across operator-selected directories.
type Service struct {
	logger      *zap.Logger
	repository  RepositoryClient
	prober      *Prober
	registry    VersionLookup
	manifests   ManifestReader
	documents   DocumentFactory
	observer    BatchObserver
	clock       shared.Clock
	concurrency int
}

// NewService validates dependencies and fills in defaults for the optional ones.
func NewService(serviceDependencies Dependencies) (*Service, error) {
	if serviceDependencies.Repository == nil {
		return nil, ErrRepositoryClientNotConfigured
	}
	logger := serviceDependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := dependencies.ResolveFileSystem(serviceDependencies.FileSystem)

	prober, proberError := NewProber(fileSystem, serviceDependencies.Repository, logger)
	if proberError != nil {
		return nil, proberError
	}

	manifests := serviceDependencies.Manifests
	if manifests == nil {
		reader, readerError := manifest.NewReader(fileSystem)
		if readerError != nil {
			return nil, readerError
		}
		manifests = reader
	}

	documents := serviceDependencies.Documents
	if documents == nil {
		factory, factoryError := tabular.NewFactory(fileSystem)
		if factoryError != nil {
			return nil, factoryError
		}
		documents = factory
	}

	versionLookup := serviceDependencies.Registry
	if versionLookup == nil {
		versionLookup = registry.NewClient(registry.DefaultConfiguration(), logger)
	}

	observer := serviceDependencies.Observer
	if observer == nil {
		observer = noopBatchObserver{}
	}

	clock := serviceDependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}

	return &Service{
		logger:      logger,
		repository:  serviceDependencies.Repository,
		prober:      prober,
		registry:    versionLookup,
		manifests:   manifests,
		documents:   documents,
		observer:    observer,
		clock:       clock,
		concurrency: ResolveConcurrency(serviceDependencies.Concurrency),
	}, nil
}

func (service *Service) batch(operation BatchOperation) Batch {
	return Batch{Operation: operation, Concurrency: service.concurrency, Observer: service.observer}
}

// Scan probes every directory and returns one status per input, in input order.
func (service *Service) Scan(executionContext context.Context, directories []string) ([]DirectoryStatus, error) {
	if len(directories) == 0 {
		return nil, ErrNoDirectories
	}
	return RunBounded(executionContext, service.batch(BatchOperationScan), directories,
		func(unitContext context.Context, directory string) (DirectoryStatus, error) {
			return service.prober.Probe(unitContext, directory), nil
		},
		func(directory string, failure error) DirectoryStatus {
			status := emptyStatus(directory)
			status.IsRepository = service.prober.hasRepositoryMarker(directory)
			status.ProbeError = failure.Error()
			return status
		},
	), nil
}

// CheckUpdates fetches from the remote and counts upstream commits missing from HEAD.
func (service *Service) CheckUpdates(executionContext context.Context, directory string) UpdateCheckResult {
	return RunBounded(executionContext, service.batch(BatchOperationCheckUpdates), []string{directory}, service.checkUpdates, updateCheckFailure)[0]
}

// CheckUpdatesBatch runs CheckUpdates across directories.
func (service *Service) CheckUpdatesBatch(executionContext context.Context, directories []string) ([]UpdateCheckResult, error) {
	if len(directories) == 0 {
		return nil, ErrNoDirectories
	}
	return RunBounded(executionContext, service.batch(BatchOperationCheckUpdates), directories, service.checkUpdates, updateCheckFailure), nil
}

func (service *Service) checkUpdates(executionContext context.Context, directory string) (UpdateCheckResult, error) {
	if fetchError := service.repository.Fetch(executionContext, directory); fetchError != nil {
		return UpdateCheckResult{}, stepFailure{step: fetchStepNameConstant, cause: fetchError}
	}

	branch, branchError := service.repository.CurrentBranch(executionContext, directory)
	if branchError != nil {
		return UpdateCheckResult{}, stepFailure{step: branchStepNameConstant, cause: branchError}
	}
	if len(branch) == 0 || branch == vcsHeadReferenceConstant {
		return UpdateCheckResult{}, errDetachedHead
	}

	incomingCount, countError := service.repository.CountIncoming(executionContext, directory, branch)
	if countError != nil {
		return UpdateCheckResult{}, stepFailure{step: countStepNameConstant, cause: countError}
	}

	message := upToDateMessageConstant
	if incomingCount > 0 {
		message = fmt.Sprintf(incomingCommitsMessageTemplateConstant, incomingCount, service.repository.RemoteName(), branch)
	}
	return UpdateCheckResult{Path: directory, Branch: branch, Success: true, AheadCount: incomingCount, Message: message}, nil
}

func updateCheckFailure(directory string, failure error) UpdateCheckResult {
	return UpdateCheckResult{Path: directory, Success: false, Message: describeFailure(failure)}
}

// Pull merges upstream changes into a single directory.
func (service *Service) Pull(executionContext context.Context, directory string) OperationResult {
	return RunBounded(executionContext, service.batch(BatchOperationPull), []string{directory}, service.pull, operationFailure)[0]
}

// PullBatch runs Pull across directories.
func (service *Service) PullBatch(executionContext context.Context, directories []string) ([]OperationResult, error) {
	if len(directories) == 0 {
		return nil, ErrNoDirectories
	}
	return RunBounded(executionContext, service.batch(BatchOperationPull), directories, service.pull, operationFailure), nil
}

func (service *Service) pull(executionContext context.Context, directory string) (OperationResult, error) {
	output, pullError := service.repository.Pull(executionContext, directory)
	if pullError != nil {
		return OperationResult{}, stepFailure{step: pullStepNameConstant, cause: pullError}
	}
	message := output
	if len(message) == 0 {
		message = pullCompletedMessageConstant
	}
	return OperationResult{Path: directory, Success: true, Message: message}, nil
}

// CommitAndPush stages, commits, and pushes each directory independently.
// The first failing step ends that directory's sequence; other directories proceed.
func (service *Service) CommitAndPush(executionContext context.Context, directories []string, message string) ([]OperationResult, error) {
	trimmedMessage := strings.TrimSpace(message)
	if len(trimmedMessage) == 0 {
		return nil, ErrCommitMessageRequired
	}
	if len(directories) == 0 {
		return nil, ErrNoDirectories
	}

	return RunBounded(executionContext, service.batch(BatchOperationCommitPush), directories,
		func(unitContext context.Context, directory string) (OperationResult, error) {
			if stageError := service.repository.StageAll(unitContext, directory); stageError != nil {
				return OperationResult{}, stepFailure{step: stageStepNameConstant, cause: stageError}
			}
			if commitError := service.repository.Commit(unitContext, directory, trimmedMessage); commitError != nil {
				return OperationResult{}, stepFailure{step: commitStepNameConstant, cause: commitError}
			}
			if pushError := service.repository.Push(unitContext, directory); pushError != nil {
				return OperationResult{}, stepFailure{step: pushStepNameConstant, cause: pushError}
			}
			return OperationResult{
				Path:    directory,
				Success: true,
				Message: fmt.Sprintf(commitPushedMessageTemplateConstant, service.repository.RemoteName()),
			}, nil
		},
		operationFailure,
	), nil
}

func operationFailure(directory string, failure error) OperationResult {
	return OperationResult{Path: directory, Success: false, Message: describeFailure(failure)}
}
