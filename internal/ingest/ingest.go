package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sapreplay/internal/config"
	"sapreplay/internal/parser"
	"sapreplay/internal/pids"
	"sapreplay/internal/replay"
	"sapreplay/internal/store"
)

// SourceDiscovered marks participations found in opponent lists.
const SourceDiscovered = "discovered"

type Result struct {
	RunID               string
	ReplaysUpserted     int
	ReplaysRemoved      int
	FilesSkipped        int
	FilesFailed         int
	Issues              int
	OpponentsDiscovered int
	Errors              []error
}

type Options struct {
	Full   bool
	Logger *zerolog.Logger
}

// job is one replay file moving through the pipeline. Exactly one of input
// and err is set once processing finishes; skip marks files that are not
// replays at all.
type job struct {
	path  string
	hash  string
	data  []byte
	input *store.ReplayInput
	err   error
	skip  bool
}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = *options.Logger
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	result := &Result{RunID: store.NewRunID()}
	logger = logger.With().Str("run_id", result.RunID).Logger()

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetReplayHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get replay hashes: %w", err)
		}
	}

	files, err := ReplayFiles(cfg.Replays.Paths, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking replay files: %w", err)
	}
	logger.Info().Int("files", len(files)).Bool("full", options.Full).Msg("ingest started")

	var jobs []*job
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		hash := computeHash(data)
		if !options.Full {
			if existing, ok := existingHashes[path]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}
		jobs = append(jobs, &job{path: path, hash: hash, data: data})
	}

	workers := cfg.Ingest.Workers
	if workers < 1 {
		workers = config.DefaultWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			process(j, result.RunID, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("processing replays: %w", err)
	}

	var summaries []replay.Summary
	for _, j := range jobs {
		pid := parser.ParticipationID(j.path)
		switch {
		case j.skip:
			result.FilesSkipped++
			logger.Debug().Str("file", j.path).Err(j.err).Msg("not a replay")
			markFailed(ctx, db, pid, j.err, result)
			continue
		case j.err != nil:
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Errorf("processing %s: %w", j.path, j.err))
			markFailed(ctx, db, pid, j.err, result)
			continue
		}

		if err := db.UpsertReplay(ctx, *j.input); err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", j.path, err))
			continue
		}
		result.ReplaysUpserted++
		result.Issues += j.input.IssueCount
		summaries = append(summaries, j.input.Summary)

		if pids.Valid(pid) {
			update := store.ParticipationUpdate{
				PID:      strings.ToLower(pid),
				Status:   store.StatusProcessed,
				Version:  j.input.Summary.Version,
				GameDate: j.input.Summary.StartedAt,
			}
			if err := db.MarkParticipation(ctx, update); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("marking %s processed: %w", pid, err))
			}
		}
	}

	if cfg.Ingest.DiscoverOpponents && len(summaries) > 0 {
		discovered, err := discoverOpponents(ctx, db, summaries)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("discovering opponents: %w", err))
		}
		result.OpponentsDiscovered = discovered
	}

	removed, err := db.RemoveStaleReplays(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale replays: %w", err))
	}
	result.ReplaysRemoved = int(removed)

	logger.Info().
		Int("upserted", result.ReplaysUpserted).
		Int("skipped", result.FilesSkipped).
		Int("failed", result.FilesFailed).
		Int("removed", result.ReplaysRemoved).
		Int("issues", result.Issues).
		Int("discovered", result.OpponentsDiscovered).
		Msg("ingest finished")

	return result, nil
}

// process decodes one replay file and derives everything stored for it.
func process(j *job, runID string, logger zerolog.Logger) {
	doc, err := parser.Parse(j.data)
	j.data = nil
	if err != nil {
		j.err = err
		j.skip = errors.Is(err, parser.ErrNotJSON) || errors.Is(err, parser.ErrNotReplay)
		return
	}
	doc.ParticipationID = parser.ParticipationID(j.path)

	fileLogger := logger.With().Str("file", j.path).Logger()
	actions, report, err := replay.Normalize(doc, replay.WithLogger(fileLogger))
	if err != nil {
		j.err = err
		return
	}
	summary, summaryReport := replay.Summarize(doc)
	turns, turnReport := replay.TurnDurations(actions)
	report.Merge(summaryReport)
	report.Merge(turnReport)

	if !report.Empty() {
		fileLogger.Debug().Int("issues", len(report.Issues)).Msg("replay decoded with issues")
	}

	j.input = &store.ReplayInput{
		SourceFile: j.path,
		SourceHash: j.hash,
		RunID:      runID,
		Summary:    summary,
		Actions:    actions,
		Turns:      turns,
		IssueCount: len(report.Issues),
	}
}

func markFailed(ctx context.Context, db Store, pid string, cause error, result *Result) {
	if !pids.Valid(pid) {
		return
	}
	update := store.ParticipationUpdate{
		PID:    strings.ToLower(pid),
		Status: store.StatusFailed,
		Error:  cause.Error(),
	}
	if err := db.MarkParticipation(ctx, update); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("marking %s failed: %w", pid, err))
	}
}

// discoverOpponents queues the participation ids of opponents that are not
// yet known.
func discoverOpponents(ctx context.Context, db Store, summaries []replay.Summary) (int, error) {
	known, err := db.ListParticipations(ctx, "")
	if err != nil {
		return 0, err
	}

	var owners, candidates []string
	for _, s := range summaries {
		if s.ParticipationID != "" {
			owners = append(owners, strings.ToLower(s.ParticipationID))
		}
		candidates = append(candidates, s.OpponentParticipationIDs...)
	}

	seen := newKnownSet(len(known) + len(owners) + len(candidates))
	for _, p := range known {
		seen.add(p.PID)
	}
	for _, pid := range owners {
		seen.add(pid)
	}

	fresh := seen.fresh(candidates)
	if len(fresh) == 0 {
		return 0, nil
	}

	inserted, err := db.UpsertParticipations(ctx, fresh, SourceDiscovered)
	return int(inserted), err
}

// knownSet answers membership with a bloom filter in front of an exact set.
// A filter miss is final; a filter hit is confirmed against the exact set.
type knownSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

func newKnownSet(capacity int) *knownSet {
	return &knownSet{
		filter: bloom.NewWithEstimates(uint(max(capacity, 1)), 0.001),
		exact:  make(map[string]struct{}, capacity),
	}
}

func (k *knownSet) add(pid string) {
	k.filter.AddString(pid)
	k.exact[pid] = struct{}{}
}

func (k *knownSet) has(pid string) bool {
	if !k.filter.TestString(pid) {
		return false
	}
	_, ok := k.exact[pid]
	return ok
}

// fresh returns the valid candidates not already in the set, deduplicated
// in first-seen order, and adds them to the set.
func (k *knownSet) fresh(candidates []string) []string {
	valid, _ := pids.Normalize(candidates)
	var out []string
	for _, pid := range valid {
		if k.has(pid) {
			continue
		}
		k.add(pid)
		out = append(out, pid)
	}
	return out
}

// ReplayFiles lists every .json file under roots, skipping excluded paths.
func ReplayFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
