package botlist

import (
	"context"

	"github.com/rohmanhakim/botlist-cache/internal/reqcache"
	"github.com/rohmanhakim/botlist-cache/internal/storage"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/rohmanhakim/botlist-cache/pkg/hashutil"
)

type JobParam struct {
	BotListRequest   reqcache.MarkupRequest
	BotListOutput    string
	BannedListSource string
	BannedListOutput string
	OutputDir        string
	HashAlgo         hashutil.HashAlgo
}

type JobResult struct {
	Bots   storage.WriteResult
	Banned storage.WriteResult
}

// Job scrapes the remote bot list and the saved banned-account page and
// writes each to its own list file.
type Job struct {
	scraper Scraper
	sink    storage.Sink
}

func NewJob(scraper Scraper, sink storage.Sink) Job {
	return Job{
		scraper: scraper,
		sink:    sink,
	}
}

// Run stops at the first failure. The bot list is written before the banned
// list is read, so a missing saved page still leaves a fresh bot list behind.
func (j *Job) Run(ctx context.Context, param JobParam) (JobResult, failure.ClassifiedError) {
	bots, err := j.scraper.FetchRemote(ctx, param.BotListRequest)
	if err != nil {
		return JobResult{}, err
	}
	botsResult, err := j.sink.WriteList(param.OutputDir, param.BotListOutput, bots, param.HashAlgo)
	if err != nil {
		return JobResult{}, err
	}

	banned, err := j.scraper.ParseLocal(param.BannedListSource)
	if err != nil {
		return JobResult{Bots: botsResult}, err
	}
	bannedResult, err := j.sink.WriteList(param.OutputDir, param.BannedListOutput, banned, param.HashAlgo)
	if err != nil {
		return JobResult{Bots: botsResult}, err
	}

	return JobResult{
		Bots:   botsResult,
		Banned: bannedResult,
	}, nil
}
