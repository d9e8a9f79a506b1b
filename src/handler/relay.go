package handler

import (
	"context"

	"hbrelay/src/enricher"
	"hbrelay/src/notices"
	"hbrelay/src/pipeline"
	"hbrelay/src/settings"
	"hbrelay/src/sink"

	logger "github.com/sirupsen/logrus"
)

// Relay holds the collaborators shared by every request. Each request
// still gets its own pipeline.
type Relay struct {
	Store    settings.Store
	SinkFor  func(settings.Policy) sink.Sink
	Failures pipeline.FailureRecorder
	Board    *notices.Board
}

// RequestOptions describe the host request a pipeline is built for.
type RequestOptions struct {
	Ambient       enricher.Ambient
	Admin         bool
	ReportingMask *int // nil means E_ALL
	PlatformMajor int
}

// NewPipeline loads the policy, picks the sink for it and runs Init.
func (rl *Relay) NewPipeline(ctx context.Context, opts RequestOptions) *pipeline.Pipeline {
	policy, err := settings.LoadPolicy(ctx, rl.Store)
	if err != nil {
		logger.WithError(err).Error("[relay] failed to load policy")
	}

	sinkFor := rl.SinkFor
	if sinkFor == nil {
		sinkFor = sink.ForPolicy
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithContext(ctx),
		pipeline.WithPolicy(policy),
		pipeline.WithAmbient(opts.Ambient),
	}
	if rl.Board != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithNotices(rl.Board, opts.Admin))
	}
	if opts.ReportingMask != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithReportingMask(*opts.ReportingMask))
	}
	if opts.PlatformMajor != 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithPlatformMajor(opts.PlatformMajor))
	}
	if rl.Failures != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithFailureRecorder(rl.Failures))
	}

	p := pipeline.New(rl.Store, sinkFor(policy), pipelineOpts...)
	if err := p.Init(); err != nil {
		logger.WithError(err).Warn("[relay] init did not complete")
	}
	return p
}
